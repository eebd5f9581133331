// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/gamestore/recsys/internal/logging"
	"github.com/gamestore/recsys/internal/recommend"
)

// EventLog is a durable append-only interaction log backed by BadgerDB.
// Every accepted interaction is written here before it is applied to
// the in-memory store; on startup Replay folds the log back into the
// store so recommendation state survives restarts.
//
// Keys are "event:<unix-nanos>:<uuid>", so Badger's ordered iteration
// replays events in arrival order without a secondary index.
type EventLog struct {
	db *badger.DB

	mu     sync.Mutex
	closed bool
}

const eventKeyPrefix = "event:"

// OpenEventLog opens (or creates) the log at path. SyncWrites trades
// write latency for durability across crashes.
func OpenEventLog(path string, syncWrites bool) (*EventLog, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = syncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	logging.Info().
		Str("path", path).
		Bool("sync_writes", syncWrites).
		Msg("Event log opened")

	return &EventLog{db: db}, nil
}

// Append persists one interaction event.
func (l *EventLog) Append(event recommend.Interaction) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := fmt.Sprintf("%s%020d:%s", eventKeyPrefix, event.Timestamp.UnixNano(), uuid.NewString())
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Replay iterates the full log in key order, invoking apply for each
// event. Entries that fail to decode are skipped with a warning rather
// than aborting the replay.
func (l *EventLog) Replay(apply func(recommend.Interaction) error) (int, error) {
	var replayed int

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var event recommend.Interaction
				if err := json.Unmarshal(val, &event); err != nil {
					logging.Warn().
						Err(err).
						Str("key", string(item.Key())).
						Msg("Skipping undecodable event log entry")
					return nil
				}
				if err := apply(event); err != nil {
					return fmt.Errorf("apply event %s: %w", string(item.Key()), err)
				}
				replayed++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return replayed, err
	}
	return replayed, nil
}

// RunGC reclaims value-log space on a fixed interval until ctx is
// cancelled. Badger never garbage-collects on its own; without this an
// append-only log grows past what the live keys need.
func (l *EventLog) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed := 0
			for {
				err := l.db.RunValueLogGC(0.5)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						logging.Warn().Err(err).Msg("Event log GC failed")
					}
					break
				}
				reclaimed++
			}
			if reclaimed > 0 {
				logging.Debug().Int("files", reclaimed).Msg("Event log GC reclaimed value log files")
			}
		}
	}
}

// Close shuts the log down. Safe to call more than once.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
