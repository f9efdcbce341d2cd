package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewardbot/steward/internal/intent"
)

// handlers is the fixed intent→handler table. It replaces the long
// if/elif chain of a naive implementation: each entry is independently
// testable, and taxonomy coverage is asserted by tests. Built once;
// never mutated after init.
var handlers = map[string]Handler{
	intent.CreateFile:      handleCreateFile,
	intent.CreateDirectory: handleCreateDirectory,
	intent.DeletePath:      handleDeletePath,
	intent.MovePath:        handleMovePath,
	intent.ListDirectory:   handleListDirectory,
	intent.ExecuteCommand:  handleExecuteCommand,
	intent.SetBrightness:   handleSetBrightness,
	intent.SetVolume:       handleSetVolume,
	intent.OpenApp:         handleOpenApp,
	intent.CloseApp:        handleCloseApp,
	intent.OpenWebsite:     handleOpenWebsite,
	intent.SearchInfo:      handleSearchInfo,
	intent.SummarizeText:   handleSummarizeText,
	intent.MediaPlay:       handleMediaPlay,
	intent.MediaPause:      handleMediaPause,
	intent.MediaSkip:       handleMediaSkip,
	intent.MediaPrevious:   handleMediaPrevious,
	intent.ListCalendar:    handleListCalendar,
	intent.CreateCalendar:  handleCreateCalendar,
	intent.GeneralQuery:    handleGeneralQuery,
}

// HandledIntents returns the tags present in the handler table, for
// coverage checks.
func HandledIntents() []string {
	tags := make([]string, 0, len(handlers))
	for tag := range handlers {
		tags = append(tags, tag)
	}
	return tags
}

func handleCreateFile(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("file operations are not available right now")
	}
	return p.OS.CreateFile(ctx, cmd.String("filepath"), cmd.String("content"))
}

func handleCreateDirectory(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("file operations are not available right now")
	}
	return p.OS.CreateDirectory(ctx, cmd.String("dir_path"))
}

func handleDeletePath(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("file operations are not available right now")
	}
	return p.OS.DeletePath(ctx, cmd.String("path"))
}

func handleMovePath(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("file operations are not available right now")
	}
	return p.OS.MovePath(ctx, cmd.String("source_path"), cmd.String("destination_path"))
}

func handleListDirectory(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("file operations are not available right now")
	}
	dir := cmd.String("dir_path")
	entries, err := p.OS.ListDirectory(ctx, dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return fmt.Sprintf("The directory %s is empty.", dir), nil
	}
	return fmt.Sprintf("Contents of %s:\n%s", dir, strings.Join(entries, "\n")), nil
}

func handleExecuteCommand(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("command execution is not available right now")
	}
	output, err := p.OS.ExecuteCommand(ctx, cmd.String("command_str"), cmd.String("shell_type"))
	if err != nil {
		return "", err
	}
	return "Command executed. Output:\n" + output, nil
}

func handleSetBrightness(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("display control is not available right now")
	}
	return p.OS.SetBrightness(ctx, cmd.Int("level"))
}

func handleSetVolume(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.OS == nil {
		return "", fmt.Errorf("audio control is not available right now")
	}
	return p.OS.SetVolume(ctx, cmd.Float("level"))
}

func handleOpenApp(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Apps == nil {
		return "", fmt.Errorf("application control is not available right now")
	}
	return p.Apps.Open(ctx, cmd.String("app_name"))
}

func handleCloseApp(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Apps == nil {
		return "", fmt.Errorf("application control is not available right now")
	}
	return p.Apps.Close(ctx, cmd.String("app_name"))
}

func handleOpenWebsite(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Web == nil {
		return "", fmt.Errorf("browser control is not available right now")
	}
	return p.Web.OpenWebsite(ctx, cmd.String("url"))
}

func handleSearchInfo(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Web == nil {
		return "", fmt.Errorf("web search is not available right now")
	}
	return p.Web.Search(ctx, cmd.String("query"), cmd.Bool("summarize"))
}

func handleSummarizeText(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Web == nil {
		return "", fmt.Errorf("summarization is not available right now")
	}
	return p.Web.Summarize(ctx, cmd.String("text"))
}

func handleMediaPlay(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Media == nil {
		return "", fmt.Errorf("media control is not available right now")
	}
	return p.Media.Play(ctx, cmd.String("player_name"), cmd.String("track_or_playlist"))
}

func handleMediaPause(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Media == nil {
		return "", fmt.Errorf("media control is not available right now")
	}
	return p.Media.Pause(ctx, cmd.String("player_name"))
}

func handleMediaSkip(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Media == nil {
		return "", fmt.Errorf("media control is not available right now")
	}
	return p.Media.Skip(ctx, cmd.String("player_name"))
}

func handleMediaPrevious(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Media == nil {
		return "", fmt.Errorf("media control is not available right now")
	}
	return p.Media.Previous(ctx, cmd.String("player_name"))
}

func handleListCalendar(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Calendar == nil {
		return "", fmt.Errorf("calendar functions are not configured")
	}
	return p.Calendar.ListEvents(ctx, cmd.String("time_period"), cmd.Int("max_results"))
}

func handleCreateCalendar(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Calendar == nil {
		return "", fmt.Errorf("calendar functions are not configured")
	}
	return p.Calendar.CreateEvent(ctx, EventRequest{
		Summary:     cmd.String("summary"),
		StartISO:    cmd.String("start_datetime_iso"),
		EndISO:      cmd.String("end_datetime_iso"),
		Description: cmd.String("description"),
		Attendees:   cmd.StringList("attendees"),
	})
}

func handleGeneralQuery(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error) {
	if p.Assistant == nil {
		return "", fmt.Errorf("I can't answer general questions right now")
	}
	return p.Assistant.Answer(ctx, cmd.String("query_text"))
}
