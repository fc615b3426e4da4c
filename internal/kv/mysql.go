package kv

import (
	"context"

	"github.com/wso2/idcard-reissue-api/internal/dao"
	"github.com/wso2/idcard-reissue-api/internal/database"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

// MySQLBackend stores values in the KV_STORE table
type MySQLBackend struct {
	db  *database.DB
	dao *dao.KVStoreDAO
}

// NewMySQLBackend wraps an initialized database. Call EnsureSchema before
// first use against a fresh database.
func NewMySQLBackend(db *database.DB) *MySQLBackend {
	return &MySQLBackend{
		db:  db,
		dao: dao.NewKVStoreDAO(db),
	}
}

// EnsureSchema creates the backing table
func (m *MySQLBackend) EnsureSchema(ctx context.Context) error {
	return m.dao.EnsureSchema(ctx)
}

// Get returns the stored value for key
func (m *MySQLBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := m.dao.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set overwrites the stored value for key
func (m *MySQLBackend) Set(ctx context.Context, key string, value []byte) error {
	return m.dao.Upsert(ctx, &dao.KVEntry{
		Key:         key,
		Value:       value,
		UpdatedTime: utils.GetCurrentTimeMillis(),
	})
}

// Close closes the database connection
func (m *MySQLBackend) Close() error {
	return m.db.Close()
}
