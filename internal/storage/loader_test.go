// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeTestFile(t, "catalog.json", `[
		{"id": "g1", "name": "Blast Commando", "price": 59.99, "genres": ["Action"]},
		{"id": "g2", "name": "Quiet Blocks", "price": 4.99, "genres": ["Puzzle"]}
	]`)

	items, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != "g1" || items[0].Price != 59.99 {
		t.Errorf("items[0] = %+v, want g1 at 59.99", items[0])
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"missing id", `[{"name": "No ID"}]`},
		{"duplicate id", `[{"id": "g1"}, {"id": "g1"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "catalog.json", tt.content)
			if _, err := LoadCatalog(path); err == nil {
				t.Error("LoadCatalog() error = nil, want error")
			}
		})
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadCatalog(missing) error = nil, want error")
	}
}

func TestLoadUsers(t *testing.T) {
	path := writeTestFile(t, "users.json", `[
		{"id": "u1", "age": 25, "gender": "female", "favorites": ["g1"]},
		{"id": "u2", "age": 40, "purchases": {"g2": 4}}
	]`)

	users, err := LoadUsers(path)
	if err != nil {
		t.Fatalf("LoadUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].Age != 25 || users[1].Purchases["g2"] != 4 {
		t.Errorf("users = %+v, want parsed collections", users)
	}
}

func TestLoadUsersOptional(t *testing.T) {
	users, err := LoadUsers("")
	if err != nil {
		t.Fatalf("LoadUsers(\"\") error = %v", err)
	}
	if users != nil {
		t.Errorf("LoadUsers(\"\") = %v, want nil", users)
	}

	path := writeTestFile(t, "users.json", `[{"id": "u1"}, {"id": "u1"}]`)
	if _, err := LoadUsers(path); err == nil {
		t.Error("LoadUsers(duplicate) error = nil, want error")
	}
}

func TestLoadSynonyms(t *testing.T) {
	path := writeTestFile(t, "synonyms.json", `{"kiếm hiệp": ["Wuxia", "RPG"]}`)

	table, err := LoadSynonyms(path)
	if err != nil {
		t.Fatalf("LoadSynonyms() error = %v", err)
	}
	if got := table["kiếm hiệp"]; len(got) != 2 || got[0] != "Wuxia" {
		t.Errorf("table = %v, want custom expansions", table)
	}

	empty, err := LoadSynonyms("")
	if err != nil {
		t.Fatalf("LoadSynonyms(\"\") error = %v", err)
	}
	if empty != nil {
		t.Errorf("LoadSynonyms(\"\") = %v, want nil for built-in table", empty)
	}
}
