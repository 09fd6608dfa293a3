package dataapi

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestBoltStore(t *testing.T) (*BoltRowStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.bolt")
	s, err := OpenBoltRowStore(path)
	if err != nil {
		t.Fatalf("unexpected error opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestBoltRowStoreCreateCollectionIdempotent(t *testing.T) {
	s, _ := openTestBoltStore(t)
	ctx := context.Background()
	settings := CollectionSettings{Comment: "c1"}
	if err := s.CreateCollection(ctx, "ns", "coll", settings); err != nil {
		t.Fatalf("unexpected error on first create: %v", err)
	}
	if err := s.CreateCollection(ctx, "ns", "coll", settings); !errors.Is(err, ErrCollectionExists) {
		t.Fatalf("expected ErrCollectionExists on identical re-create, got %v", err)
	}
	if err := s.CreateCollection(ctx, "ns", "coll", CollectionSettings{Comment: "different"}); err == nil {
		t.Fatal("expected error re-creating with different settings")
	}
}

func TestBoltRowStoreInsertGetAndConflict(t *testing.T) {
	s, _ := openTestBoltStore(t)
	ctx := context.Background()
	s.CreateCollection(ctx, "ns", "coll", CollectionSettings{})

	doc := shredDoc(t, `{"_id":"1","a":1}`)
	if err := s.InsertIfNotExists(ctx, "ns", "coll", doc, 1); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if err := s.InsertIfNotExists(ctx, "ns", "coll", doc, 1); !errors.Is(err, ErrDocConflict) {
		t.Fatalf("expected ErrDocConflict, got %v", err)
	}

	row, ok, err := s.Get(ctx, "ns", "coll", doc.ID)
	if err != nil || !ok {
		t.Fatalf("expected to find inserted row, ok=%v err=%v", ok, err)
	}
	if row.Tx != 1 {
		t.Fatalf("expected tx=1, got %d", row.Tx)
	}
	if string(row.Doc.DocJSON) != string(doc.DocJSON) {
		t.Fatalf("expected the round-tripped document to match, got %s", row.Doc.DocJSON)
	}
}

func TestBoltRowStoreCompareAndSwapAndDelete(t *testing.T) {
	s, _ := openTestBoltStore(t)
	ctx := context.Background()
	s.CreateCollection(ctx, "ns", "coll", CollectionSettings{})
	doc := shredDoc(t, `{"_id":"1","a":1}`)
	s.InsertIfNotExists(ctx, "ns", "coll", doc, 1)

	updated := shredDoc(t, `{"_id":"1","a":2}`)
	if err := s.CompareAndSwap(ctx, "ns", "coll", doc.ID, 99, updated, 2); !errors.Is(err, ErrCASMismatch) {
		t.Fatalf("expected ErrCASMismatch on stale tx, got %v", err)
	}
	if err := s.CompareAndSwap(ctx, "ns", "coll", doc.ID, 1, updated, 2); err != nil {
		t.Fatalf("unexpected error on valid CAS: %v", err)
	}
	row, _, _ := s.Get(ctx, "ns", "coll", doc.ID)
	if row.Tx != 2 {
		t.Fatalf("expected tx=2 after swap, got %d", row.Tx)
	}

	if err := s.CompareAndDelete(ctx, "ns", "coll", doc.ID, 1); !errors.Is(err, ErrCASMismatch) {
		t.Fatalf("expected ErrCASMismatch deleting with stale tx, got %v", err)
	}
	if err := s.CompareAndDelete(ctx, "ns", "coll", doc.ID, 2); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "ns", "coll", doc.ID); ok {
		t.Fatal("expected row to be gone after delete")
	}
}

func TestBoltRowStoreScanOrder(t *testing.T) {
	s, _ := openTestBoltStore(t)
	ctx := context.Background()
	s.CreateCollection(ctx, "ns", "coll", CollectionSettings{})
	for _, id := range []string{"c", "a", "b"} {
		doc := shredDoc(t, `{"_id":"`+id+`"}`)
		if err := s.InsertIfNotExists(ctx, "ns", "coll", doc, 1); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	if err := s.Scan(ctx, "ns", "coll", nil, func(r Row) bool {
		got = append(got, r.ID.Text())
		return true
	}); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan order = %v, want %v", got, want)
		}
	}
}

func TestBoltRowStorePersistsAcrossReopen(t *testing.T) {
	s, path := openTestBoltStore(t)
	ctx := context.Background()
	s.CreateCollection(ctx, "ns", "coll", CollectionSettings{Comment: "durable"})
	doc := shredDoc(t, `{"_id":"1","a":1}`)
	if err := s.InsertIfNotExists(ctx, "ns", "coll", doc, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	reopened, err := OpenBoltRowStore(path)
	if err != nil {
		t.Fatalf("unexpected error reopening: %v", err)
	}
	defer reopened.Close()

	settings, exists, err := reopened.GetCollectionSettings(ctx, "ns", "coll")
	if err != nil || !exists {
		t.Fatalf("expected the collection to survive reopen, exists=%v err=%v", exists, err)
	}
	if settings.Comment != "durable" {
		t.Fatalf("expected settings to survive reopen, got %+v", settings)
	}
	row, ok, err := reopened.Get(ctx, "ns", "coll", doc.ID)
	if err != nil || !ok {
		t.Fatalf("expected the row to survive reopen, ok=%v err=%v", ok, err)
	}
	if row.Tx != 1 {
		t.Fatalf("expected tx=1 after reopen, got %d", row.Tx)
	}
}

func TestBoltRowStoreDropCollectionThenRecreate(t *testing.T) {
	s, _ := openTestBoltStore(t)
	ctx := context.Background()
	s.CreateCollection(ctx, "ns", "coll", CollectionSettings{})
	s.InsertIfNotExists(ctx, "ns", "coll", shredDoc(t, `{"_id":"1"}`), 1)

	if err := s.DropCollection(ctx, "ns", "coll"); err != nil {
		t.Fatalf("unexpected error dropping: %v", err)
	}
	if err := s.DropCollection(ctx, "ns", "coll"); err != nil {
		t.Fatalf("expected dropping a missing collection to be a no-op, got %v", err)
	}
	if _, exists, _ := s.GetCollectionSettings(ctx, "ns", "coll"); exists {
		t.Fatal("expected the collection to be gone")
	}

	if err := s.CreateCollection(ctx, "ns", "coll", CollectionSettings{Comment: "fresh"}); err != nil {
		t.Fatalf("unexpected error re-creating after drop: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "ns", "coll", DocIDFromString("1")); ok {
		t.Fatal("expected the recreated collection to start empty")
	}
}
