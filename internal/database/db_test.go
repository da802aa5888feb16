package database

import (
	"path/filepath"
	"testing"
)

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "state.db", want: "state.db"},
		{in: "file:state.db", want: "state.db"},
		{in: "file:data/state.db?_pragma=busy_timeout(5000)", want: "data/state.db"},
		{in: "my%20state.db", want: "my state.db"},
	}
	for _, tt := range tests {
		if got := ExtractDBNameFromPath(tt.in); got != tt.want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithPragmas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "state.db", want: "state.db?_pragma=busy_timeout(5000)"},
		{in: "file:state.db?mode=rwc", want: "file:state.db?mode=rwc&_pragma=busy_timeout(5000)"},
		{in: "state.db?_pragma=busy_timeout(100)", want: "state.db?_pragma=busy_timeout(100)"},
	}
	for _, tt := range tests {
		if got := withPragmas(tt.in); got != tt.want {
			t.Errorf("withPragmas(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDBAppliesMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.db")
	db, err := NewDB(path, nil)
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	defer CloseDB(db, nil)

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM state"); err != nil {
		t.Fatalf("state table not created: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh state table has %d rows, want 0", count)
	}

	// A second run against the same file is a no-op.
	if err := ApplyMigrations(db.DB, path, nil); err != nil {
		t.Errorf("ApplyMigrations() second run error = %v", err)
	}
}
