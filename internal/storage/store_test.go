// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/gamestore/recsys/internal/recommend"
)

func TestApplyFoldsIntoUserState(t *testing.T) {
	s := NewMemoryStore()
	s.SetUsers([]recommend.User{{ID: "u1", Age: 25}})

	events := []recommend.Interaction{
		{UserID: "u1", ItemID: "g1", Type: recommend.InteractionView},
		{UserID: "u1", ItemID: "g1", Type: recommend.InteractionView},
		{UserID: "u1", ItemID: "g2", Type: recommend.InteractionFavorite},
		{UserID: "u1", ItemID: "g2", Type: recommend.InteractionFavorite}, // duplicate
		{UserID: "u1", ItemID: "g3", Type: recommend.InteractionPurchase, Rating: 4},
	}
	for _, e := range events {
		if err := s.Apply(e); err != nil {
			t.Fatalf("Apply(%+v) error = %v", e, err)
		}
	}

	users, err := s.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1", len(users))
	}

	u := users[0]
	if u.Age != 25 {
		t.Errorf("Age = %d, want preloaded record kept", u.Age)
	}
	if got := u.Views["g1"]; got != 2 {
		t.Errorf("Views[g1] = %d, want 2", got)
	}
	if len(u.Favorites) != 1 || u.Favorites[0] != "g2" {
		t.Errorf("Favorites = %v, want [g2] with duplicate collapsed", u.Favorites)
	}
	if got := u.Purchases["g3"]; got != 4 {
		t.Errorf("Purchases[g3] = %v, want 4", got)
	}
}

func TestApplyCreatesUnknownUsers(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Apply(recommend.Interaction{
		UserID: "newcomer", ItemID: "g1", Type: recommend.InteractionPurchase, Rating: 5,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	users, err := s.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != "newcomer" {
		t.Fatalf("users = %v, want newcomer created on first contact", users)
	}
}

func TestApplyRejectsInvalidEvents(t *testing.T) {
	s := NewMemoryStore()

	tests := []struct {
		name  string
		event recommend.Interaction
	}{
		{"missing user", recommend.Interaction{ItemID: "g1", Type: recommend.InteractionView}},
		{"missing item", recommend.Interaction{UserID: "u1", Type: recommend.InteractionView}},
		{"unknown type", recommend.Interaction{UserID: "u1", ItemID: "g1", Type: recommend.InteractionType(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Apply(tt.event); err == nil {
				t.Error("Apply() error = nil, want error")
			}
		})
	}

	if _, _, events := s.Counts(); events != 0 {
		t.Errorf("events = %d, want 0 after rejected applies", events)
	}
}

func TestGetUsersDeterministicOrderAndIsolation(t *testing.T) {
	s := NewMemoryStore()
	s.SetUsers([]recommend.User{
		{ID: "zeta", Favorites: []string{"g1"}},
		{ID: "alpha"},
		{ID: "mike"},
	})

	users, err := s.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers() error = %v", err)
	}

	want := []string{"alpha", "mike", "zeta"}
	for i, id := range want {
		if users[i].ID != id {
			t.Fatalf("users[%d].ID = %q, want %q", i, users[i].ID, id)
		}
	}

	// Mutating the returned copy must not leak into the store.
	users[2].Favorites[0] = "poisoned"
	again, err := s.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers() error = %v", err)
	}
	if again[2].Favorites[0] != "g1" {
		t.Errorf("store favorites mutated through returned copy: %v", again[2].Favorites)
	}
}

func TestGetInteractionsSinceFilter(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, day := range []int{0, 5, 10} {
		if err := s.Apply(recommend.Interaction{
			UserID:    "u1",
			ItemID:    []string{"g1", "g2", "g3"}[i],
			Type:      recommend.InteractionView,
			Timestamp: base.AddDate(0, 0, day),
		}); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}

	all, err := s.GetInteractions(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("GetInteractions() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	recent, err := s.GetInteractions(context.Background(), base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("GetInteractions() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2 at or after the cutoff", len(recent))
	}
	if recent[0].ItemID != "g2" || recent[1].ItemID != "g3" {
		t.Errorf("recent = %v, want timestamp order g2, g3", recent)
	}
}

func TestSetCatalogAndCounts(t *testing.T) {
	s := NewMemoryStore()
	s.SetCatalog([]recommend.Item{{ID: "g1"}, {ID: "g2"}})
	s.SetUsers([]recommend.User{{ID: "u1"}})

	if err := s.Apply(recommend.Interaction{
		UserID: "u1", ItemID: "g1", Type: recommend.InteractionView,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	items, users, events := s.Counts()
	if items != 2 || users != 1 || events != 1 {
		t.Errorf("Counts() = (%d, %d, %d), want (2, 1, 1)", items, users, events)
	}

	got, err := s.GetItems(context.Background())
	if err != nil {
		t.Fatalf("GetItems() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(got))
	}
}
