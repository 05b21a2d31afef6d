package history

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	entries := []Dictation{
		{Text: "first dictation", CharCount: 15, AudioSeconds: 1.5, TranscribeMs: 320},
		{Text: "second dictation", CharCount: 16, AudioSeconds: 2.0, TranscribeMs: 410},
		{Text: "third dictation", CharCount: 15, AudioSeconds: 0.8, TranscribeMs: 290},
	}
	for _, d := range entries {
		if err := s.Record(d); err != nil {
			t.Fatalf("Record(%q) error = %v", d.Text, err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(got))
	}
	if got[0].Text != "third dictation" || got[1].Text != "second dictation" {
		t.Errorf("Recent order wrong: %q, %q", got[0].Text, got[1].Text)
	}
	if got[0].AudioSeconds != 0.8 || got[0].TranscribeMs != 290 {
		t.Errorf("metrics not round-tripped: %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated")
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recent() on empty store returned %d entries", len(got))
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.Record(Dictation{Text: "x", CharCount: 1}); err != nil {
		t.Errorf("Record() error = %v", err)
	}
}
