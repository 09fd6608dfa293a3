package dataapi

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// BoltRowStore is a durable single-node RowStore backed by a bbolt file,
// one top-level bucket per (namespace, collection), named by bucketPath.
// Row bodies are
// msgpack-encoded then zstd-compressed before being written, since a
// shredded row's index columns plus doc_json can be considerably larger
// than the source document.
type BoltRowStore struct {
	bdb *bbolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

const settingsKey = "\x00settings"

func OpenBoltRowStore(path string) (*BoltRowStore, error) {
	bdb, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open row store: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return &BoltRowStore{bdb: bdb, enc: enc, dec: dec}, nil
}

func (s *BoltRowStore) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.bdb.Close()
}

func bucketPath(namespace, collection string) []byte {
	return []byte(namespace + "\x00" + collection)
}

// wireRow is the on-disk shape of one row: only types msgpack encodes
// unambiguously, so decimals and timestamps are carried as strings/millis
// rather than relying on custom (de)serializers for third-party types.
type wireRow struct {
	Tag  uint8
	Text string
	Tx   uint64

	DocJSON       []byte
	DocFieldOrder []string
	ExistKeys     []string

	ArraySize     map[string]int
	ArrayContains []string
	SubDocEquals  map[string]uint64

	QueryBoolValues      map[string]bool
	QueryDblValues       map[string]string
	QueryTextValues      map[string]string
	QueryTimestampMillis map[string]int64
	QueryNullValues      []string
	QueryVectorValue     []float32
}

func toWireRow(r Row) (wireRow, error) {
	d := r.Doc
	w := wireRow{
		Tag:                  r.ID.Tag(),
		Text:                 r.ID.Text(),
		Tx:                   r.Tx,
		DocJSON:              d.DocJSON,
		DocFieldOrder:        d.DocFieldOrder,
		ArraySize:            d.ArraySize,
		QueryBoolValues:      d.QueryBoolValues,
		QueryTextValues:      d.QueryTextValues,
		QueryDblValues:       make(map[string]string, len(d.QueryDblValues)),
		QueryTimestampMillis: make(map[string]int64, len(d.QueryTimestampValues)),
	}
	for k := range d.ExistKeys {
		w.ExistKeys = append(w.ExistKeys, k)
	}
	for k := range d.ArrayContains {
		w.ArrayContains = append(w.ArrayContains, k)
	}
	w.SubDocEquals = d.SubDocEquals
	for k, v := range d.QueryDblValues {
		w.QueryDblValues[k] = v.String()
	}
	for k := range d.QueryNullValues {
		w.QueryNullValues = append(w.QueryNullValues, k)
	}
	for k, t := range d.QueryTimestampValues {
		w.QueryTimestampMillis[k] = t.UnixMilli()
	}
	if len(d.QueryVectorValue) > 0 {
		w.QueryVectorValue = d.QueryVectorValue
	}
	return w, nil
}

func fromWireRow(w wireRow) (Row, error) {
	doc := &WritableShreddedDocument{
		DocJSON:              w.DocJSON,
		DocFieldOrder:        w.DocFieldOrder,
		ExistKeys:            make(map[string]struct{}, len(w.ExistKeys)),
		ArraySize:            w.ArraySize,
		ArrayContains:        make(map[string]struct{}, len(w.ArrayContains)),
		SubDocEquals:         w.SubDocEquals,
		QueryBoolValues:      w.QueryBoolValues,
		QueryTextValues:      w.QueryTextValues,
		QueryNullValues:      make(map[string]struct{}, len(w.QueryNullValues)),
		QueryTimestampValues: make(map[string]time.Time, len(w.QueryTimestampMillis)),
		QueryVectorValue:     w.QueryVectorValue,
	}
	for _, k := range w.ExistKeys {
		doc.ExistKeys[k] = struct{}{}
	}
	for _, k := range w.ArrayContains {
		doc.ArrayContains[k] = struct{}{}
	}
	for _, k := range w.QueryNullValues {
		doc.QueryNullValues[k] = struct{}{}
	}
	doc.QueryDblValues = make(map[string]apd.Decimal, len(w.QueryDblValues))
	for k, s := range w.QueryDblValues {
		dec, _, err := apd.NewFromString(s)
		if err != nil {
			return Row{}, err
		}
		doc.QueryDblValues[k] = *dec
	}
	for k, ms := range w.QueryTimestampMillis {
		doc.QueryTimestampValues[k] = time.UnixMilli(ms).UTC()
	}

	var id DocID
	switch w.Tag {
	case uint8(docIDTagString):
		id = DocIDFromString(w.Text)
	case uint8(docIDTagBoolean):
		id = DocIDFromBool(w.Text == "true")
	case uint8(docIDTagNull):
		id = DocIDNull()
	case uint8(docIDTagNumber):
		dec, _, err := apd.NewFromString(w.Text)
		if err != nil {
			return Row{}, err
		}
		id = DocIDFromDecimal(*dec)
	default:
		u, err := uuid.Parse(w.Text)
		if err != nil {
			return Row{}, err
		}
		id = DocIDFromUUID(u)
	}
	doc.ID = id
	return Row{ID: id, Tx: w.Tx, Doc: doc}, nil
}

func (s *BoltRowStore) encodeRow(r Row) ([]byte, error) {
	w, err := toWireRow(r)
	if err != nil {
		return nil, err
	}
	packed, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, err
	}
	return s.enc.EncodeAll(packed, nil), nil
}

func (s *BoltRowStore) decodeRow(raw []byte) (Row, error) {
	packed, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return Row{}, err
	}
	var w wireRow
	if err := msgpack.Unmarshal(packed, &w); err != nil {
		return Row{}, err
	}
	return fromWireRow(w)
}

func rowKey(id DocID) []byte {
	key := make([]byte, 1+len(id.Text()))
	key[0] = id.Tag()
	copy(key[1:], id.Text())
	return key
}

func (s *BoltRowStore) CreateCollection(_ context.Context, namespace, collection string, settings CollectionSettings) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketPath(namespace, collection))
		if err != nil {
			return err
		}
		if raw := b.Get([]byte(settingsKey)); raw != nil {
			var existing CollectionSettings
			if err := msgpack.Unmarshal(raw, &existing); err != nil {
				return err
			}
			if existing.Equal(settings) {
				return ErrCollectionExists
			}
			return newAPIError(ErrInvalidCollectionName,
				"collection '%s' already exists with different settings", collection)
		}
		raw, err := msgpack.Marshal(&settings)
		if err != nil {
			return err
		}
		return b.Put([]byte(settingsKey), raw)
	})
}

func (s *BoltRowStore) DropCollection(_ context.Context, namespace, collection string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(bucketPath(namespace, collection))
		if err == bbolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func (s *BoltRowStore) ListCollections(_ context.Context, namespace string) ([]string, error) {
	prefix := []byte(namespace + "\x00")
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if len(name) > len(prefix) && string(name[:len(prefix)]) == string(prefix) {
				names = append(names, string(name[len(prefix):]))
			}
			return nil
		})
	})
	return names, err
}

func (s *BoltRowStore) GetCollectionSettings(_ context.Context, namespace, collection string) (CollectionSettings, bool, error) {
	var settings CollectionSettings
	found := false
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPath(namespace, collection))
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(settingsKey))
		if raw == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(raw, &settings)
	})
	return settings, found, err
}

func (s *BoltRowStore) InsertIfNotExists(_ context.Context, namespace, collection string, doc *WritableShreddedDocument, tx uint64) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketPath(namespace, collection))
		if b == nil {
			return newAPIError(ErrCollectionNotExist, "collection '%s' does not exist", collection)
		}
		key := rowKey(doc.ID)
		if b.Get(key) != nil {
			return ErrDocConflict
		}
		raw, err := s.encodeRow(Row{ID: doc.ID, Tx: tx, Doc: doc})
		if err != nil {
			return err
		}
		return b.Put(key, raw)
	})
}

func (s *BoltRowStore) Get(_ context.Context, namespace, collection string, id DocID) (Row, bool, error) {
	var row Row
	found := false
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPath(namespace, collection))
		if b == nil {
			return newAPIError(ErrCollectionNotExist, "collection '%s' does not exist", collection)
		}
		raw := b.Get(rowKey(id))
		if raw == nil {
			return nil
		}
		found = true
		var err error
		row, err = s.decodeRow(raw)
		return err
	})
	return row, found, err
}

func (s *BoltRowStore) CompareAndSwap(_ context.Context, namespace, collection string, id DocID, expectedTx uint64, doc *WritableShreddedDocument, newTx uint64) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPath(namespace, collection))
		if b == nil {
			return newAPIError(ErrCollectionNotExist, "collection '%s' does not exist", collection)
		}
		key := rowKey(id)
		raw := b.Get(key)
		if raw == nil {
			return ErrCASMismatch
		}
		cur, err := s.decodeRow(raw)
		if err != nil {
			return err
		}
		if cur.Tx != expectedTx {
			return ErrCASMismatch
		}
		newRaw, err := s.encodeRow(Row{ID: id, Tx: newTx, Doc: doc})
		if err != nil {
			return err
		}
		return b.Put(key, newRaw)
	})
}

func (s *BoltRowStore) CompareAndDelete(_ context.Context, namespace, collection string, id DocID, expectedTx uint64) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPath(namespace, collection))
		if b == nil {
			return newAPIError(ErrCollectionNotExist, "collection '%s' does not exist", collection)
		}
		key := rowKey(id)
		raw := b.Get(key)
		if raw == nil {
			return ErrCASMismatch
		}
		cur, err := s.decodeRow(raw)
		if err != nil {
			return err
		}
		if cur.Tx != expectedTx {
			return ErrCASMismatch
		}
		return b.Delete(key)
	})
}

func (s *BoltRowStore) Scan(_ context.Context, namespace, collection string, after *DocID, visit func(Row) bool) error {
	return s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPath(namespace, collection))
		if b == nil {
			return newAPIError(ErrCollectionNotExist, "collection '%s' does not exist", collection)
		}
		c := b.Cursor()
		var k, v []byte
		if after != nil {
			ak := rowKey(*after)
			k, v = c.Seek(ak)
			if k != nil && string(k) == string(ak) {
				k, v = c.Next()
			}
		} else {
			k, v = c.First()
		}
		for ; k != nil; k, v = c.Next() {
			if string(k) == settingsKey {
				continue
			}
			row, err := s.decodeRow(v)
			if err != nil {
				return err
			}
			if !visit(row) {
				break
			}
		}
		return nil
	})
}
