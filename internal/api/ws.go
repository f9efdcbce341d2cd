package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	// Interactive sessions can idle for a long time between commands.
	wsReadTimeout = 10 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The command API carries no cookies or credentials, so
	// cross-origin clients (the web UI served elsewhere) are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsCommand is an inbound WebSocket frame.
type wsCommand struct {
	Command string `json:"command"`
}

// handleWebSocket runs an interactive command session over one
// connection: each text frame is an utterance, each reply carries the
// response. The connection closes after the session-ending sentinel.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.RemoteAddr
	s.logger.Info("websocket session opened", "remote", sessionID)
	defer s.logger.Info("websocket session closed", "remote", sessionID)

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var req wsCommand
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "remote", sessionID, "error", err)
			}
			return
		}
		if req.Command == "" {
			continue
		}

		resp := s.pipe.Process(r.Context(), "ws", req.Command)

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(CommandResponse{
			Response: resp.Text,
			Intent:   resp.Intent,
			OK:       resp.OK,
		}); err != nil {
			s.logger.Debug("websocket write failed", "remote", sessionID, "error", err)
			return
		}

		if resp.Exit {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
			return
		}
	}
}
