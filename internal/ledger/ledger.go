package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/xhanulik/oss-fuzz/internal/paths"
)

// Builds remembered per project and tag. Appending beyond the cap evicts
// the oldest entry.
const maxHistoryLength = 64

// One stored history record.
type record struct {
	Key      string   `json:"key"`
	BuildTag string   `json:"buildTag"`
	Project  string   `json:"project"`
	BuildIDs []string `json:"buildIds"`
}

// Ledger stores the identifiers of submitted builds, newest last.
type Ledger struct {
	db *badger.DB
}

// Opens the ledger database rooted at dir, creating it as needed.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening ledger at %s: %w", dir, err)
	}
	return &Ledger{db: db}, nil
}

// Opens an in-memory ledger that vanishes on Close. Intended for tests.
func OpenInMemory() (*Ledger, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening in-memory ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Appends a build identifier to the history of one project and tag,
// creating the record on first use.
//
// Concurrent appends to the same record conflict under snapshot isolation;
// the losing transaction retries with fresh state, so no identifier is ever
// dropped.
func (l *Ledger) RecordBuild(ctx context.Context, project, tag, buildID string) error {
	key := []byte(recordKey(project, tag))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := l.db.Update(func(txn *badger.Txn) error {
			rec, err := getRecord(txn, key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				rec = &record{Key: string(key), BuildTag: tag, Project: project}
			} else if err != nil {
				return err
			}

			rec.BuildIDs = append(rec.BuildIDs, buildID)
			if n := len(rec.BuildIDs) - maxHistoryLength; n > 0 {
				rec.BuildIDs = rec.BuildIDs[n:]
			}

			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("recording build %s: %w", buildID, err)
		}
		return nil
	}
}

// Returns the identifiers of the remembered builds for one project and tag,
// oldest first. An unknown project has an empty history.
func (l *Ledger) History(ctx context.Context, project, tag string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	err := l.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, []byte(recordKey(project, tag)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ids = rec.BuildIDs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history for %s: %w", project, err)
	}
	return ids, nil
}

// Reads and decodes one record inside a transaction.
func getRecord(txn *badger.Txn, key []byte) (*record, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", key, err)
	}
	return &rec, nil
}

// Returns the storage key for one project and tag.
func recordKey(project, tag string) string {
	return project + "-" + tag
}
