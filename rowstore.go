package dataapi

import (
	"context"
	"errors"
)

// ErrCollectionExists is returned by CreateCollection when a table with the
// requested name already exists with the same settings (the create is a
// no-op success, per §8 scenario 4's "second identical call also succeeds").
var ErrCollectionExists = errors.New("collection already exists with matching settings")

// ErrDocConflict is returned by InsertIfNotExists when a row with the same
// primary key already exists.
var ErrDocConflict = errors.New("document already exists")

// ErrCASMismatch is returned by CompareAndSwap/CompareAndDelete when the
// stored tx_id no longer matches the expected value.
var ErrCASMismatch = errors.New("tx_id mismatch")

// Row is one persisted document: its shredded index columns plus the
// concurrency token, as stored by a RowStore.
type Row struct {
	ID  DocID
	Tx  uint64
	Doc *WritableShreddedDocument
}

// RowStore is the executor abstraction this module targets: something that
// stores one table per collection and answers document-shaped reads and
// CAS writes against it. Both an in-memory fake (for tests, per the test
// seam design note) and a durable single-node implementation satisfy it.
type RowStore interface {
	// CreateCollection creates the backing table if absent. If a table
	// with this name already exists, its settings are compared against
	// settings: an exact match returns ErrCollectionExists (a benign,
	// idempotent no-op from the caller's point of view); a mismatch
	// returns an *APIError tagged INVALID_COLLECTION_NAME.
	CreateCollection(ctx context.Context, namespace, collection string, settings CollectionSettings) error

	// DropCollection removes a table. Dropping a table that does not
	// exist is not an error (§8 scenario 5).
	DropCollection(ctx context.Context, namespace, collection string) error

	// ListCollections enumerates the collection names in a namespace. No
	// column-shape check is made: every collection the store holds for the
	// namespace is listed.
	ListCollections(ctx context.Context, namespace string) ([]string, error)

	// GetCollectionSettings returns the settings a collection was created
	// with, and whether it exists at all.
	GetCollectionSettings(ctx context.Context, namespace, collection string) (CollectionSettings, bool, error)

	// InsertIfNotExists writes a brand new row. Returns ErrDocConflict if
	// the primary key is already occupied.
	InsertIfNotExists(ctx context.Context, namespace, collection string, doc *WritableShreddedDocument, tx uint64) error

	// Get fetches one row by id. ok is false if no such row exists.
	Get(ctx context.Context, namespace, collection string, id DocID) (row Row, ok bool, err error)

	// CompareAndSwap atomically replaces a row's document and index
	// columns, provided the stored tx_id still equals expectedTx.
	// Returns ErrCASMismatch on a stale expectedTx.
	CompareAndSwap(ctx context.Context, namespace, collection string, id DocID, expectedTx uint64, doc *WritableShreddedDocument, newTx uint64) error

	// CompareAndDelete atomically removes a row, provided the stored
	// tx_id still equals expectedTx.
	CompareAndDelete(ctx context.Context, namespace, collection string, id DocID, expectedTx uint64) error

	// Scan iterates every row of a collection in primary-key order,
	// starting strictly after `after` when non-nil, invoking visit for
	// each row until visit returns false or rows are exhausted.
	Scan(ctx context.Context, namespace, collection string, after *DocID, visit func(Row) bool) error

	Close() error
}

// ScanFiltered is a convenience built on RowStore.Scan: it applies preds
// in-memory to every scanned row (the "index pushdown" of a real store is,
// in this executor, simply a full scan plus the same in-memory evaluator
// used to cross-check store-side predicates in §8), collecting up to limit
// matches starting after the given paging cursor. limit <= 0 means
// unlimited (used when the caller needs the full match set, e.g. to rank
// it by vector similarity before truncating).
func ScanFiltered(ctx context.Context, rs RowStore, namespace, collection string, preds []FilterPredicate, after *DocID, limit int) ([]Row, *DocID, error) {
	var out []Row
	var next *DocID
	err := rs.Scan(ctx, namespace, collection, after, func(r Row) bool {
		doc, perr := ParseJSON(r.Doc.DocJSON)
		if perr != nil {
			return true
		}
		if !MatchesInMemory(doc, r.ID, preds) {
			return true
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			id := r.ID
			next = &id
			return false
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return out, next, nil
}

// CountFiltered counts matching rows via a full scan; there is no separate
// COUNT pushdown path in this executor.
func CountFiltered(ctx context.Context, rs RowStore, namespace, collection string, preds []FilterPredicate) (int, error) {
	count := 0
	err := rs.Scan(ctx, namespace, collection, nil, func(r Row) bool {
		doc, perr := ParseJSON(r.Doc.DocJSON)
		if perr != nil {
			return true
		}
		if MatchesInMemory(doc, r.ID, preds) {
			count++
		}
		return true
	})
	return count, err
}
