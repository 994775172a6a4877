// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package postgres

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// TestMigrationRollbackIntegrity validates every up migration has a sound
// rollback. Static analysis only, no database required.
func TestMigrationRollbackIntegrity(t *testing.T) {
	upFiles, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	ups := make(map[string]string)
	downs := make(map[string]string)
	for _, e := range upFiles {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = name
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = name
		default:
			t.Errorf("unexpected file in migrations dir: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no up migration files found")
	}

	for version := range ups {
		if _, ok := downs[version]; !ok {
			t.Errorf("migration %s has no rollback", version)
		}
	}
	for version := range downs {
		if _, ok := ups[version]; !ok {
			t.Errorf("rollback %s has no up migration", version)
		}
	}

	createTable := regexp.MustCompile(`(?i)CREATE TABLE (?:IF NOT EXISTS )?(\w+)`)
	dropTable := regexp.MustCompile(`(?i)DROP TABLE (?:IF EXISTS )?(\w+)`)

	for version, upName := range ups {
		downName, ok := downs[version]
		if !ok {
			continue
		}
		up := readMigration(t, upName)
		down := readMigration(t, downName)

		if strings.TrimSpace(down) == "" {
			t.Errorf("rollback %s is empty", version)
			continue
		}

		created := map[string]bool{}
		for _, m := range createTable.FindAllStringSubmatch(up, -1) {
			created[strings.ToLower(m[1])] = true
		}
		dropped := map[string]bool{}
		for _, m := range dropTable.FindAllStringSubmatch(down, -1) {
			dropped[strings.ToLower(m[1])] = true
		}
		for table := range created {
			if !dropped[table] {
				t.Errorf("migration %s creates table %s but rollback does not drop it", version, table)
			}
		}
	}
}

func TestMigrationVersionsOrdered(t *testing.T) {
	versions := migrationVersions()
	if len(versions) == 0 {
		t.Fatal("no migration versions")
	}
	for i := 1; i < len(versions); i++ {
		if versions[i-1] >= versions[i] {
			t.Errorf("versions out of order: %s >= %s", versions[i-1], versions[i])
		}
	}
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := migrationFiles.ReadFile(filepath.Join("migrations", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}
