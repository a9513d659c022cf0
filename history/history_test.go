package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_AppendRecent(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	ctx := context.Background()

	for _, id := range []string{"one", "two", "three"} {
		if err := s.Append(ctx, &Record{GameID: id, Source: SourceZip, OK: true}); err != nil {
			t.Fatal(err)
		}
	}
	got := s.Recent(2)
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d", len(got))
	}
	if got[0].GameID != "three" || got[1].GameID != "two" {
		t.Errorf("order = %s, %s", got[0].GameID, got[1].GameID)
	}
	if got[0].ID == "" || got[0].At.IsZero() {
		t.Errorf("ID/At not filled: %+v", got[0])
	}
	if all := s.Recent(0); len(all) != 3 {
		t.Errorf("Recent(0) = %d records", len(all))
	}
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	s1 := NewStore(dir, nil)
	if err := s1.Append(context.Background(), &Record{Source: SourceGithub, Origin: "https://github.com/a/b", Error: "boom"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "imports.json")); err != nil {
		t.Fatal(err)
	}
	s2 := NewStore(dir, nil)
	got := s2.Recent(0)
	if len(got) != 1 || got[0].Error != "boom" || got[0].OK {
		t.Errorf("reloaded: %+v", got)
	}
}

func TestStore_Limit(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	if s.limit != MaxRecords {
		t.Fatalf("default limit = %d, want %d", s.limit, MaxRecords)
	}
	s.limit = 3
	for i := 0; i < 5; i++ {
		if err := s.Append(context.Background(), &Record{Source: SourceZip, GameID: string(rune('a' + i))}); err != nil {
			t.Fatal(err)
		}
	}
	got := s.Recent(0)
	if len(got) != 3 || got[0].GameID != "e" || got[2].GameID != "c" {
		t.Errorf("trimmed history = %+v", got)
	}
}

func TestStore_DatabaseErrorIgnored(t *testing.T) {
	failing := func() (*sql.DB, error) { return nil, errors.New("no route to host") }
	s := NewStore(t.TempDir(), failing)
	if err := s.Append(context.Background(), &Record{Source: SourceZip}); err != nil {
		t.Fatalf("db failure must not fail Append: %v", err)
	}
	if len(s.Recent(0)) != 1 {
		t.Error("record not stored on disk")
	}
}
