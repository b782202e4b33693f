package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/studygraph/internal/db"
	"github.com/yigit/studygraph/internal/pkg/friendship"
)

// PgFriendshipRepository is the PostgreSQL FriendshipRepository.
// Each ledger entry is stored as one row per (user_key, friend_key) pair.
type PgFriendshipRepository struct {
	db *db.PostgresDB
}

var _ FriendshipRepository = (*PgFriendshipRepository)(nil)

// NewFriendshipRepository creates a new PgFriendshipRepository
func NewFriendshipRepository(database *db.PostgresDB) *PgFriendshipRepository {
	return &PgFriendshipRepository{db: database}
}

// GetLedger loads the whole ledger
func (r *PgFriendshipRepository) GetLedger(ctx context.Context) (friendship.Ledger, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT user_key, friend_key FROM friendships`)
	if err != nil {
		return nil, fmt.Errorf("error loading friendships: %w", err)
	}
	defer rows.Close()

	lists := make(map[string][]string)
	for rows.Next() {
		var userKey, friendKey string
		if err := rows.Scan(&userKey, &friendKey); err != nil {
			return nil, fmt.Errorf("error scanning friendship: %w", err)
		}
		lists[userKey] = append(lists[userKey], friendKey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendships: %w", err)
	}

	return friendship.FromLists(lists), nil
}

// SaveEntries replaces the rows of the given keys in one transaction
func (r *PgFriendshipRepository) SaveEntries(ctx context.Context, ledger friendship.Ledger, keys ...string) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, key := range keys {
			batch.Queue(`DELETE FROM friendships WHERE user_key = $1`, key)
			for _, friend := range ledger.Friends(key) {
				batch.Queue(`INSERT INTO friendships (user_key, friend_key) VALUES ($1, $2)`, key, friend)
			}
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("error saving friendships: %w", err)
		}
		return nil
	})
}
