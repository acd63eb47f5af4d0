package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"010_news.sql":          "SELECT 10;",
		"002_forms.sql":         "SELECT 2;",
		"001_reference.sql":     "SELECT 1;",
		"V5__checklists.sql":    "SELECT 5;",
		"README.md":             "not a migration",
		"notes.sql":             "no version",
		"abc_not_a_version.sql": "skipped",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 4 {
		t.Fatalf("expected 4 migrations, got %d", len(migrations))
	}
	want := []int{1, 2, 5, 10}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("migration %d: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
	if migrations[2].Name != "V5__checklists.sql" || migrations[2].SQL != "SELECT 5;" {
		t.Errorf("unexpected migration: %+v", migrations[2])
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := NewMigrator(nil, filepath.Join(t.TempDir(), "missing")).LoadMigrations()
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"001_core.sql", 1, true},
		{"V12__news.sql", 12, true},
		{"V1_1__x.sql", 0, false},
		{"core.sql", 0, false},
		{"001_core.txt", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseVersion(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseVersion(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
