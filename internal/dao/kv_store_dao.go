package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wso2/idcard-reissue-api/internal/database"
)

// KVStoreDAO handles database operations for the KV_STORE table
type KVStoreDAO struct {
	db *database.DB
}

// KVEntry is one row of KV_STORE
type KVEntry struct {
	Key         string `db:"NAMESPACE_KEY"`
	Value       []byte `db:"VALUE"`
	UpdatedTime int64  `db:"UPDATED_TIME"`
}

// NewKVStoreDAO creates a new KVStoreDAO instance
func NewKVStoreDAO(db *database.DB) *KVStoreDAO {
	return &KVStoreDAO{db: db}
}

// EnsureSchema creates the KV_STORE table if it does not exist
func (dao *KVStoreDAO) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS KV_STORE (
			NAMESPACE_KEY VARCHAR(255) NOT NULL,
			VALUE LONGBLOB NOT NULL,
			UPDATED_TIME BIGINT NOT NULL,
			PRIMARY KEY (NAMESPACE_KEY)
		)
	`

	if _, err := dao.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create KV_STORE table: %w", err)
	}

	return nil
}

// Get retrieves the entry for a key. A missing key returns nil without error.
func (dao *KVStoreDAO) Get(ctx context.Context, key string) (*KVEntry, error) {
	query := `
		SELECT NAMESPACE_KEY, VALUE, UPDATED_TIME
		FROM KV_STORE
		WHERE NAMESPACE_KEY = ?
	`

	var entry KVEntry
	err := dao.db.GetContext(ctx, &entry, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return &entry, nil
}

// Upsert inserts or replaces the value for a key
func (dao *KVStoreDAO) Upsert(ctx context.Context, entry *KVEntry) error {
	return dao.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		return dao.UpsertWithTx(ctx, tx, entry)
	})
}

// UpsertWithTx inserts or replaces the value for a key using a transaction
func (dao *KVStoreDAO) UpsertWithTx(ctx context.Context, tx *database.Transaction, entry *KVEntry) error {
	query := `
		INSERT INTO KV_STORE (NAMESPACE_KEY, VALUE, UPDATED_TIME)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE VALUE = VALUES(VALUE), UPDATED_TIME = VALUES(UPDATED_TIME)
	`

	_, err := tx.ExecContext(ctx, query, entry.Key, entry.Value, entry.UpdatedTime)
	if err != nil {
		return fmt.Errorf("failed to upsert key %s: %w", entry.Key, err)
	}

	return nil
}
