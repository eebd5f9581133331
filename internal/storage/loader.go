// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/gamestore/recsys/internal/recommend"
)

// LoadCatalog reads the item catalog from a JSON file. The file is an
// array of item objects.
func LoadCatalog(path string) ([]recommend.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var items []recommend.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	seen := make(map[string]bool, len(items))
	for i := range items {
		if items[i].ID == "" {
			return nil, fmt.Errorf("catalog %s: item %d has no id", path, i)
		}
		if seen[items[i].ID] {
			return nil, fmt.Errorf("catalog %s: duplicate item id %q", path, items[i].ID)
		}
		seen[items[i].ID] = true
	}
	return items, nil
}

// LoadUsers reads user records from a JSON file. The file is an array
// of user objects; an empty path is allowed and yields no users, since
// users can also materialize from event replay.
func LoadUsers(path string) ([]recommend.User, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	var users []recommend.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse users %s: %w", path, err)
	}

	seen := make(map[string]bool, len(users))
	for i := range users {
		if users[i].ID == "" {
			return nil, fmt.Errorf("users %s: user %d has no id", path, i)
		}
		if seen[users[i].ID] {
			return nil, fmt.Errorf("users %s: duplicate user id %q", path, users[i].ID)
		}
		seen[users[i].ID] = true
	}
	return users, nil
}

// LoadSynonyms reads a query synonym table from a JSON file mapping
// phrases to canonical expansions. An empty path yields nil, which
// callers treat as "use the built-in table".
func LoadSynonyms(path string) (map[string][]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}

	var table map[string][]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}
	return table, nil
}
