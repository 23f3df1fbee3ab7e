// Package history keeps per-user conversation transcripts on disk so a
// restarted bot picks up each dialogue where it left off. Every user gets
// one JSON file holding the ordered list of turns sent to the model.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/IlazCode/GigaChatBot/internal/fsstore"
	"github.com/IlazCode/GigaChatBot/internal/gigachat"
)

// ErrNoHistory is returned by Clear when the user has no stored transcript.
var ErrNoHistory = errors.New("history: no stored history for user")

// Store reads and writes conversation transcripts under a single directory.
type Store struct {
	dir string
}

// NewStore creates the backing directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history: empty directory")
	}
	if err := fsstore.EnsureDir(dir, 0); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("history_%d.json", userID))
}

// Read returns the stored transcript for the user, oldest turn first.
// A user with no history gets a nil slice and no error.
func (s *Store) Read(userID int64) ([]gigachat.Message, error) {
	var turns []gigachat.Message
	found, err := fsstore.ReadJSON(s.path(userID), &turns)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return turns, nil
}

// Append adds turns to the end of the user's transcript, creating the
// file on first use. Appending zero turns is a no-op.
func (s *Store) Append(userID int64, turns ...gigachat.Message) error {
	if len(turns) == 0 {
		return nil
	}
	existing, err := s.Read(userID)
	if err != nil {
		return err
	}
	combined := append(existing, turns...)
	return fsstore.WriteJSONAtomic(s.path(userID), combined, fsstore.FileOptions{})
}

// Clear removes the user's transcript. It reports ErrNoHistory when
// there is nothing to remove, so callers can word the reply accordingly.
func (s *Store) Clear(userID int64) error {
	err := os.Remove(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoHistory
	}
	if err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}
