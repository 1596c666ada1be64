package store

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)
	byVersion := map[string]map[string]bool{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			t.Fatalf("unexpected file %q in migrations", entry.Name())
		}
		version, direction := match[1], match[2]
		if byVersion[version] == nil {
			byVersion[version] = map[string]bool{}
		}
		if byVersion[version][direction] {
			t.Fatalf("duplicate %s migration file for version %s", direction, version)
		}
		byVersion[version][direction] = true
	}

	if len(byVersion) == 0 {
		t.Fatal("no migrations discovered")
	}
	for version, dirs := range byVersion {
		if !dirs["up"] || !dirs["down"] {
			t.Fatalf("version %s must include both up and down files", version)
		}
	}
}

func TestAuditAppendOnlyMigrationUsesBlockingTriggers(t *testing.T) {
	raw, err := fs.ReadFile(Migrations(), "0002_audit_events_append_only.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(raw)

	for _, snippet := range []string{
		"audit_events_append_only_guard",
		"RAISE EXCEPTION",
		"CREATE TRIGGER trg_audit_events_block_update",
		"CREATE TRIGGER trg_audit_events_block_delete",
	} {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected migration to contain %q", snippet)
		}
	}
	if strings.Contains(sqlText, "DO INSTEAD NOTHING") {
		t.Fatal("expected hard-fail guard, found silent DO INSTEAD NOTHING rule")
	}
}

func TestMigrationFilesSortedByVersion(t *testing.T) {
	files, err := migrationFiles(Migrations(), ".up.sql")
	if err != nil {
		t.Fatalf("migrationFiles() error = %v", err)
	}
	want := []string{"0001_audit_events.up.sql", "0002_audit_events_append_only.up.sql"}
	if len(files) != len(want) {
		t.Fatalf("migrationFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("migrationFiles()[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}
