// Package secrets provides encrypted-at-rest credential storage for
// provider integrations (CalDAV passwords, API keys). Values are
// sealed with ChaCha20-Poly1305 under a key kept outside the database.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite"
)

// Store manages encrypted credential persistence.
type Store struct {
	db  *sql.DB
	key []byte
}

// NewStore opens (or creates) the secrets database at dbPath. keyPath
// holds the 32-byte master key; a missing key file is created with
// fresh random material.
func NewStore(dbPath, keyPath string) (*Store, error) {
	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, key: key}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		if len(data) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s is %d bytes, want %d", path, len(data), chacha20poly1305.KeySize)
		}
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS secrets (
			name TEXT PRIMARY KEY,
			nonce BLOB NOT NULL,
			ciphertext BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores a named secret, replacing any previous value.
func (s *Store) Set(name, value string) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	// Bind the ciphertext to its name so rows can't be swapped.
	ad := sha256.Sum256([]byte(name))
	ciphertext := aead.Seal(nil, nonce, []byte(value), ad[:])

	_, err = s.db.Exec(`
		INSERT INTO secrets (name, nonce, ciphertext, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			nonce = excluded.nonce,
			ciphertext = excluded.ciphertext,
			updated_at = excluded.updated_at
	`, name, nonce, ciphertext, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Get retrieves and decrypts a named secret. A missing name returns
// sql.ErrNoRows.
func (s *Store) Get(name string) (string, error) {
	var nonce, ciphertext []byte
	err := s.db.QueryRow(`SELECT nonce, ciphertext FROM secrets WHERE name = ?`, name).
		Scan(&nonce, &ciphertext)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	ad := sha256.Sum256([]byte(name))
	plaintext, err := aead.Open(nil, nonce, ciphertext, ad[:])
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", name, err)
	}
	return string(plaintext), nil
}

// Delete removes a named secret. Deleting a missing name is not an
// error.
func (s *Store) Delete(name string) error {
	_, err := s.db.Exec(`DELETE FROM secrets WHERE name = ?`, name)
	return err
}

// List returns the stored secret names, never the values.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM secrets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
