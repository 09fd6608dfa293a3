package dataapi

import "context"

// NewMemTenantSession builds a TenantSession backed by an in-memory
// RowStore, wired with its own index budget and schema cache. Used by
// tests and any embedding process that wants the "fake executor" test
// seam called for in §9 rather than a durable store.
func NewMemTenantSession(cfg Config) *TenantSession {
	store := NewMemRowStore()
	return newTenantSession(store, cfg)
}

// NewBoltTenantSession builds a TenantSession backed by a durable bbolt
// file at path.
func NewBoltTenantSession(path string, cfg Config) (*TenantSession, error) {
	store, err := OpenBoltRowStore(path)
	if err != nil {
		return nil, err
	}
	return newTenantSession(store, cfg), nil
}

func newTenantSession(store RowStore, cfg Config) *TenantSession {
	budget := NewIndexBudget(cfg.Database.IndexesAvailablePerDatabase)
	cache := NewSchemaCache(cfg.SchemaCache, func(tenant, namespace, collection string) (SchemaEntry, error) {
		settings, exists, err := store.GetCollectionSettings(context.Background(), namespace, collection)
		if err != nil {
			return SchemaEntry{}, err
		}
		return SchemaEntry{Exists: exists, Settings: settings}, nil
	})
	return &TenantSession{Store: store, Budget: budget, SchemaCache: cache}
}
