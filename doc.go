/*
Package dataapi implements a document-oriented API layer in front of a
wide-column store: clients issue commands such as createCollection,
findOne, insertOne, updateOne and deleteOne against named collections
inside a namespace, and the package presents them as a JSON document
database.

We implement:

 1. The shredder, a deterministic transformation from an arbitrary JSON
    document into a fixed relational row shape (one row per document,
    a set of secondary index columns keyed by dotted path), plus the
    path locator algebra used by filters and updates.

 2. The command pipeline: parsing a JSON command envelope, resolving it
    to an Operation, executing that operation against a RowStore, and
    shaping the result into a uniform envelope.

# Technical details

**Rows.** Every document lives in exactly one row of its collection's
table. The row's key is derived from the document's "_id" field; all
other columns are derived from the document body by the shredder (see
shred.go) and exist purely to support predicate pushdown and, for
vector-enabled collections, approximate nearest-neighbour search.

**Concurrency.** Documents are mutated by read-then-compare-and-swap on
a monotonically increasing tx_id (see rowstore.go, opupdate.go). There
is no cross-document transaction and no global lock; only the
RowStore's per-row CAS primitive is required to be linearizable.

**Schema cache.** Each tenant session holds its own cache of
per-collection metadata (schemacache.go). Find reads it so that repeated
commands against the same collection do not re-fetch table metadata on
every request; CreateCollection and DropCollection invalidate the entry
of the collection they change.
*/
package dataapi
