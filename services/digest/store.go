// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package digest implements the aggregation pipeline and its persistence:
// source fan-out, status inference, summary synthesis, and the append-only
// BadgerDB digest store.
//
// Digest entries are immutable once persisted. The store keeps two key
// families per entry:
//
//	digest:<id>            -> JSON-encoded DigestEntry (primary record)
//	bydate:<stamp>:<id>    -> <id>                     (reverse-chron index)
//
// The index stamp is a fixed-width UTC timestamp so lexicographic order
// equals chronological order; FindRecent iterates the index in reverse.
package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

const (
	digestKeyPrefix = "digest:"
	dateIndexPrefix = "bydate:"

	// dateStampLayout is fixed-width so index keys sort chronologically.
	dateStampLayout = "20060102T150405.000000000"
)

// CreateFields are the caller-supplied parts of a new digest entry.
// The store assigns id and date.
type CreateFields struct {
	ProductID  string
	Title      string
	Summary    string
	Status     datatypes.DigestStatus
	Highlights []datatypes.ReleaseHighlight
	Metrics    []datatypes.HealthMetric
	Incidents  []string
	Sources    []string
}

// Store is the persistence surface the pipeline and the HTTP handlers
// consume.
type Store interface {
	// FindRecent returns up to limit entries in descending date order.
	FindRecent(ctx context.Context, limit int) ([]datatypes.DigestEntry, error)

	// Create persists a new entry, assigning its id and date.
	Create(ctx context.Context, fields CreateFields) (datatypes.DigestEntry, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int, error)
}

// BadgerStore is the embedded BadgerDB implementation of Store.
type BadgerStore struct {
	db *badger.DB

	// test hooks; default to time.Now and uuid-based ids.
	now   func() time.Time
	newID func() string
}

var _ Store = (*BadgerStore)(nil)

// badgerLogger adapts slog to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenStore opens a persistent digest store at the given directory,
// creating it if needed. Caller must Close() when done.
func OpenStore(path string, logger *slog.Logger) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("path is required for persistent store")
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path).WithSyncWrites(true).WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return newBadgerStore(db), nil
}

// OpenInMemoryStore opens an in-memory store for testing. Data is lost
// when closed.
func OpenInMemoryStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger store: %w", err)
	}
	return newBadgerStore(db), nil
}

func newBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{
		db:  db,
		now: time.Now,
		newID: func() string {
			return "dg-" + uuid.NewString()
		},
	}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func digestKey(id string) []byte {
	return []byte(digestKeyPrefix + id)
}

func dateIndexKey(date time.Time, id string) []byte {
	return []byte(dateIndexPrefix + date.UTC().Format(dateStampLayout) + ":" + id)
}

// putEntry writes the primary record and its date index within txn.
func putEntry(txn *badger.Txn, entry datatypes.DigestEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode digest %s: %w", entry.ID, err)
	}
	if err := txn.Set(digestKey(entry.ID), raw); err != nil {
		return err
	}
	return txn.Set(dateIndexKey(entry.Date, entry.ID), []byte(entry.ID))
}

// Create persists a new digest entry. The id is uuid-based and the date is
// the write time; both are store-assigned, matching the append-only model.
func (s *BadgerStore) Create(ctx context.Context, fields CreateFields) (datatypes.DigestEntry, error) {
	if err := ctx.Err(); err != nil {
		return datatypes.DigestEntry{}, fmt.Errorf("context cancelled: %w", err)
	}

	entry := datatypes.DigestEntry{
		ID:         s.newID(),
		ProductID:  fields.ProductID,
		Title:      fields.Title,
		Summary:    fields.Summary,
		Date:       s.now().UTC(),
		Status:     fields.Status,
		Highlights: fields.Highlights,
		Metrics:    fields.Metrics,
		Incidents:  fields.Incidents,
		Sources:    fields.Sources,
	}
	if entry.Incidents == nil {
		entry.Incidents = []string{}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return putEntry(txn, entry)
	})
	if err != nil {
		return datatypes.DigestEntry{}, fmt.Errorf("persist digest: %w", err)
	}
	return entry, nil
}

// FindRecent returns up to limit digests, newest first.
func (s *BadgerStore) FindRecent(ctx context.Context, limit int) ([]datatypes.DigestEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if limit <= 0 {
		limit = 5
	}

	entries := make([]datatypes.DigestEntry, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(dateIndexPrefix)
		// Seek past the last possible index key, then walk backwards.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < limit; it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := txn.Get(digestKey(string(id)))
			if err != nil {
				return fmt.Errorf("load digest %s: %w", id, err)
			}
			var entry datatypes.DigestEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode digest %s: %w", id, err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Latest returns the most recent digest, or ok=false when the store is empty.
func (s *BadgerStore) Latest(ctx context.Context) (datatypes.DigestEntry, bool, error) {
	return Latest(ctx, s)
}

// Latest is the head of the FindRecent ordering for any Store.
func Latest(ctx context.Context, store Store) (datatypes.DigestEntry, bool, error) {
	entries, err := store.FindRecent(ctx, 1)
	if err != nil {
		return datatypes.DigestEntry{}, false, err
	}
	if len(entries) == 0 {
		return datatypes.DigestEntry{}, false, nil
	}
	return entries[0], true, nil
}

// Count returns the number of persisted digests.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(digestKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
