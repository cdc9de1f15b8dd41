// Package ledger is the account ledger core: the registry of accounts, the
// engine that moves money, the admin action log and the admin authority.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GiorgiUbiria/fakebank/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the shared persistence handle of the ledger components. Registry,
// Engine, AdminLog and Authority built on the same Store share its locks.
type Store struct {
	db    *gorm.DB
	locks *accountLocks
	clock *monotonicClock
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, locks: &accountLocks{}, clock: &monotonicClock{}}
}

func (s *Store) DB() *gorm.DB { return s.db }

// mutate locks the given accounts, opens a transaction and loads them before
// calling fn. Missing accounts are simply absent from the map.
func (s *Store) mutate(ctx context.Context, ids []uint, fn func(tx *gorm.DB, accts map[uint]*models.Account) error) error {
	unlock := s.locks.lock(ids...)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accts, err := loadForUpdate(tx, ids)
		if err != nil {
			return err
		}
		return fn(tx, accts)
	})
}

func loadForUpdate(tx *gorm.DB, ids []uint) (map[uint]*models.Account, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.Account
	if err := q.Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	out := make(map[uint]*models.Account, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func pick(accts map[uint]*models.Account, id uint) (*models.Account, error) {
	a, ok := accts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func first(db *gorm.DB, dest any, query string, args ...any) error {
	err := db.Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsUniqueViolation reports whether err came from a unique constraint on
// either supported database.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// monotonicClock never hands out a time earlier than one it already returned.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *monotonicClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
