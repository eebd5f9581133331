// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"
	"time"

	"github.com/gamestore/recsys/internal/recommend"
)

func openTestLog(t *testing.T, path string) *EventLog {
	t.Helper()
	log, err := OpenEventLog(path, false)
	if err != nil {
		t.Fatalf("OpenEventLog() error = %v", err)
	}
	t.Cleanup(func() {
		if err := log.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return log
}

func TestEventLogAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	log := openTestLog(t, dir)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	want := []recommend.Interaction{
		{UserID: "u1", ItemID: "g1", Type: recommend.InteractionView, Timestamp: base},
		{UserID: "u1", ItemID: "g2", Type: recommend.InteractionFavorite, Timestamp: base.Add(time.Second)},
		{UserID: "u2", ItemID: "g1", Type: recommend.InteractionPurchase, Rating: 4, Timestamp: base.Add(2 * time.Second)},
	}
	for _, e := range want {
		if err := log.Append(e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	var got []recommend.Interaction
	n, err := log.Replay(func(e recommend.Interaction) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if n != len(want) {
		t.Fatalf("Replay() = %d events, want %d", n, len(want))
	}

	for i := range want {
		if got[i].UserID != want[i].UserID || got[i].ItemID != want[i].ItemID ||
			got[i].Type != want[i].Type || got[i].Rating != want[i].Rating {
			t.Errorf("replayed[%d] = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("replayed[%d].Timestamp = %v, want %v", i, got[i].Timestamp, want[i].Timestamp)
		}
	}
}

func TestEventLogSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	log, err := OpenEventLog(dir, false)
	if err != nil {
		t.Fatalf("OpenEventLog() error = %v", err)
	}
	if err := log.Append(recommend.Interaction{
		UserID: "u1", ItemID: "g1", Type: recommend.InteractionPurchase, Rating: 5,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := openTestLog(t, dir)
	n, err := reopened.Replay(func(recommend.Interaction) error { return nil })
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Replay() after reopen = %d events, want 1", n)
	}
}

func TestEventLogReplayIntoStore(t *testing.T) {
	dir := t.TempDir()
	log := openTestLog(t, dir)

	events := []recommend.Interaction{
		{UserID: "u1", ItemID: "g1", Type: recommend.InteractionFavorite},
		{UserID: "u1", ItemID: "g2", Type: recommend.InteractionPurchase, Rating: 3},
		{UserID: "u2", ItemID: "g1", Type: recommend.InteractionView},
	}
	for _, e := range events {
		if err := log.Append(e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	store := NewMemoryStore()
	n, err := log.Replay(store.Apply)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if n != len(events) {
		t.Fatalf("Replay() = %d events, want %d", n, len(events))
	}

	if _, users, stored := store.Counts(); users != 2 || stored != len(events) {
		t.Errorf("Counts() users = %d events = %d, want 2 and %d", users, stored, len(events))
	}
}

func TestEventLogCloseIdempotent(t *testing.T) {
	log, err := OpenEventLog(t.TempDir(), false)
	if err != nil {
		t.Fatalf("OpenEventLog() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
}
