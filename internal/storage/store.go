// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the catalog, user, and interaction state behind
// the scoring engine. The in-memory store is the authoritative working
// set; the Badger event log makes interaction writes durable so the
// store can be rebuilt on startup by replaying the log.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gamestore/recsys/internal/recommend"
)

// MemoryStore is the in-memory implementation of the engine's data
// provider. Catalog and user records load at startup; interaction
// events stream in through Apply and fold into the per-user state the
// signals train on.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []recommend.Item
	users  map[string]*recommend.User
	events []recommend.Interaction
}

var _ recommend.DataProvider = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*recommend.User),
	}
}

// SetCatalog replaces the item catalog.
func (s *MemoryStore) SetCatalog(items []recommend.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]recommend.Item, len(items))
	copy(s.items, items)
}

// SetUsers replaces the user records. Interaction collections already
// on the records are kept; subsequent Apply calls extend them.
func (s *MemoryStore) SetUsers(users []recommend.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*recommend.User, len(users))
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
}

// Apply records one interaction event and folds it into the user's
// collections. Unknown users are created on first contact so event
// replay does not depend on the user file being complete.
func (s *MemoryStore) Apply(event recommend.Interaction) error {
	if event.UserID == "" || event.ItemID == "" {
		return fmt.Errorf("interaction missing user or item id")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[event.UserID]
	if !ok {
		user = &recommend.User{ID: event.UserID}
		s.users[event.UserID] = user
	}

	switch event.Type {
	case recommend.InteractionFavorite:
		if !user.IsFavorite(event.ItemID) {
			user.Favorites = append(user.Favorites, event.ItemID)
		}
	case recommend.InteractionPurchase:
		if user.Purchases == nil {
			user.Purchases = make(map[string]float64)
		}
		user.Purchases[event.ItemID] = event.Rating
	case recommend.InteractionView:
		if user.Views == nil {
			user.Views = make(map[string]int)
		}
		user.Views[event.ItemID]++
	default:
		return fmt.Errorf("unknown interaction type %q", event.Type)
	}

	s.events = append(s.events, event)
	return nil
}

// GetItems returns a copy of the catalog.
func (s *MemoryStore) GetItems(_ context.Context) ([]recommend.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

// GetUsers returns a deep copy of all user records, ordered by ID for
// deterministic matrix layout.
func (s *MemoryStore) GetUsers(_ context.Context) ([]recommend.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recommend.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetInteractions returns events at or after since, ordered by
// timestamp. A zero since returns the full log.
func (s *MemoryStore) GetInteractions(_ context.Context, since time.Time) ([]recommend.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recommend.Interaction, 0, len(s.events))
	for _, e := range s.events {
		if since.IsZero() || !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Counts returns the current catalog, user, and event counts.
func (s *MemoryStore) Counts() (items, users, events int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), len(s.users), len(s.events)
}

func copyUser(u *recommend.User) recommend.User {
	out := *u
	if u.Favorites != nil {
		out.Favorites = make([]string, len(u.Favorites))
		copy(out.Favorites, u.Favorites)
	}
	if u.Purchases != nil {
		out.Purchases = make(map[string]float64, len(u.Purchases))
		for k, v := range u.Purchases {
			out.Purchases[k] = v
		}
	}
	if u.Views != nil {
		out.Views = make(map[string]int, len(u.Views))
		for k, v := range u.Views {
			out.Views[k] = v
		}
	}
	return out
}
