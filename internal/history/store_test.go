package history

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/IlazCode/GigaChatBot/internal/gigachat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestReadMissingUserReturnsEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	turns, err := s.Read(42)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Read() = %v, want empty", turns)
	}
}

func TestAppendThenReadPreservesOrder(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	want := []gigachat.Message{
		{Role: gigachat.RoleUser, Content: "hello"},
		{Role: gigachat.RoleAssistant, Content: "hi there"},
		{Role: gigachat.RoleUser, Content: "how are you"},
	}
	if err := s.Append(7, want[0], want[1]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(7, want[2]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := s.Read(7)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want %v", got, want)
	}
}

func TestAppendBatchesEquivalent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	a := gigachat.Message{Role: gigachat.RoleUser, Content: "a"}
	b := gigachat.Message{Role: gigachat.RoleAssistant, Content: "b"}

	if err := s.Append(1, a); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(1, b); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(2, a, b); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	first, err := s.Read(1)
	if err != nil {
		t.Fatalf("Read(1) error = %v", err)
	}
	second, err := s.Read(2)
	if err != nil {
		t.Fatalf("Read(2) error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("split append %v differs from batch append %v", first, second)
	}
}

func TestAppendZeroTurnsNoFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Append(9); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := os.Stat(s.path(9)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file after empty append, stat error = %v", err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Append(100, gigachat.Message{Role: gigachat.RoleUser, Content: "mine"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	turns, err := s.Read(200)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Read(200) = %v, want empty", turns)
	}
}

func TestClearMissingReportsNoHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Clear(5); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("Clear() error = %v, want ErrNoHistory", err)
	}
}

func TestClearThenReadEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Append(3, gigachat.Message{Role: gigachat.RoleUser, Content: "x"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Clear(3); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	turns, err := s.Read(3)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Read() after Clear() = %v, want empty", turns)
	}
}
