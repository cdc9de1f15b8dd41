package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/GiorgiUbiria/fakebank/internal/idgen"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"github.com/GiorgiUbiria/fakebank/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxIdentifierAttempts = 5

// NewAccount describes an account to open for an existing identity.
type NewAccount struct {
	OwnerID   uint
	FirstName string
	LastName  string
	IsAdmin   bool
}

// Registry owns the identity→account mapping, identifier uniqueness and the
// account lifecycle flags.
type Registry struct {
	store *Store
	gen   idgen.Generator
}

func NewRegistry(store *Store, gen idgen.Generator) *Registry {
	if gen == nil {
		gen = idgen.UUID{}
	}
	return &Registry{store: store, gen: gen}
}

// CreateAccount opens a regular account for owner with the initial balance.
func (r *Registry) CreateAccount(ctx context.Context, ownerID uint, firstName, lastName string) (models.Account, error) {
	var acct models.Account
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		acct, err = r.CreateAccountTx(tx, NewAccount{OwnerID: ownerID, FirstName: firstName, LastName: lastName})
		return err
	})
	return acct, err
}

// CreateAccountTx opens an account inside tx, so callers can commit it
// together with the identity it belongs to. Identifier collisions are
// retried with fresh numbers a bounded number of times.
func (r *Registry) CreateAccountTx(tx *gorm.DB, in NewAccount) (models.Account, error) {
	taken, err := ownerHasAccount(tx, in.OwnerID)
	if err != nil {
		return models.Account{}, err
	}
	if taken {
		return models.Account{}, ErrDuplicateOwner
	}
	if in.FirstName == "" {
		in.FirstName = "Default"
	}
	if in.LastName == "" {
		in.LastName = "User"
	}

	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		acct := models.Account{
			OwnerID:       in.OwnerID,
			FirstName:     in.FirstName,
			LastName:      in.LastName,
			AccountNumber: r.gen.Generate(),
			PaymentNumber: r.gen.Generate(),
			Balance:       InitialBalance,
			IsAdmin:       in.IsAdmin,
		}
		// savepoint, so a collision does not poison the outer transaction
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&acct).Error
		})
		if err == nil {
			logger.Log.Info("account created",
				zap.Uint("account_id", acct.ID),
				zap.Uint("owner_id", acct.OwnerID),
				zap.Bool("admin", acct.IsAdmin))
			return acct, nil
		}
		if !IsUniqueViolation(err) {
			return models.Account{}, fmt.Errorf("create account: %w", err)
		}
		if taken, _ := ownerHasAccount(tx, in.OwnerID); taken {
			return models.Account{}, ErrDuplicateOwner
		}
		logger.Log.Warn("account identifier collision", zap.Int("attempt", attempt))
	}
	return models.Account{}, ErrIdentifierExhausted
}

func ownerHasAccount(tx *gorm.DB, ownerID uint) (bool, error) {
	var n int64
	if err := tx.Model(&models.Account{}).Where("owner_id = ?", ownerID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check owner: %w", err)
	}
	return n > 0, nil
}

// EnsureAccount returns the owner's account, opening one on first access.
func (r *Registry) EnsureAccount(ctx context.Context, ownerID uint, firstName, lastName string) (models.Account, error) {
	acct, err := r.FindByOwner(ctx, ownerID)
	if !errors.Is(err, ErrNotFound) {
		return acct, err
	}
	acct, err = r.CreateAccount(ctx, ownerID, firstName, lastName)
	if errors.Is(err, ErrDuplicateOwner) {
		return r.FindByOwner(ctx, ownerID)
	}
	return acct, err
}

func (r *Registry) FindByID(ctx context.Context, id uint) (models.Account, error) {
	var acct models.Account
	err := first(r.store.db.WithContext(ctx), &acct, "id = ?", id)
	return acct, err
}

func (r *Registry) FindByOwner(ctx context.Context, ownerID uint) (models.Account, error) {
	var acct models.Account
	err := first(r.store.db.WithContext(ctx), &acct, "owner_id = ?", ownerID)
	return acct, err
}

func (r *Registry) FindByPaymentNumber(ctx context.Context, paymentNumber string) (models.Account, error) {
	var acct models.Account
	err := first(r.store.db.WithContext(ctx), &acct, "payment_number = ?", paymentNumber)
	return acct, err
}

func (r *Registry) FindByAccountNumber(ctx context.Context, accountNumber string) (models.Account, error) {
	var acct models.Account
	err := first(r.store.db.WithContext(ctx), &acct, "account_number = ?", accountNumber)
	return acct, err
}

// ListNonAdmin returns regular accounts ordered by the owner's username.
func (r *Registry) ListNonAdmin(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	err := r.store.db.WithContext(ctx).
		Select("accounts.*").
		Joins("LEFT JOIN users ON users.id = accounts.owner_id").
		Where("accounts.is_admin = ?", false).
		Order("users.username, accounts.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (r *Registry) CountNonAdmin(ctx context.Context) (int64, error) {
	var n int64
	if err := r.store.db.WithContext(ctx).Model(&models.Account{}).Where("is_admin = ?", false).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// SetSuspended freezes an active account. There is no way back.
func (r *Registry) SetSuspended(ctx context.Context, id uint) (models.Account, error) {
	return r.transition(ctx, id, suspend)
}

// SetClosed zeroes the balance of an active account and closes it.
func (r *Registry) SetClosed(ctx context.Context, id uint) (models.Account, error) {
	return r.transition(ctx, id, closeAccount)
}

// Delete removes the account and its identity, whatever its lifecycle state.
func (r *Registry) Delete(ctx context.Context, id uint) error {
	_, err := r.transition(ctx, id, remove)
	return err
}

func (r *Registry) transition(ctx context.Context, id uint, fn func(tx *gorm.DB, a *models.Account) error) (models.Account, error) {
	var out models.Account
	err := r.store.mutate(ctx, []uint{id}, func(tx *gorm.DB, accts map[uint]*models.Account) error {
		a, err := pick(accts, id)
		if err != nil {
			return err
		}
		if err := fn(tx, a); err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return out, nil
}

func suspend(tx *gorm.DB, a *models.Account) error {
	switch {
	case a.IsSuspended:
		return ErrAlreadySuspended
	case a.IsClosed:
		return ErrAlreadyClosed
	}
	a.IsSuspended = true
	if err := tx.Model(a).Update("is_suspended", true).Error; err != nil {
		return fmt.Errorf("suspend account: %w", err)
	}
	logger.Log.Info("account suspended", zap.Uint("account_id", a.ID))
	return nil
}

func closeAccount(tx *gorm.DB, a *models.Account) error {
	switch {
	case a.IsClosed:
		return ErrAlreadyClosed
	case a.IsSuspended:
		return ErrAlreadySuspended
	}
	a.IsClosed = true
	a.Balance = decimalZero
	if err := tx.Model(a).Updates(map[string]any{"is_closed": true, "balance": a.Balance}).Error; err != nil {
		return fmt.Errorf("close account: %w", err)
	}
	logger.Log.Info("account closed", zap.Uint("account_id", a.ID))
	return nil
}

func remove(tx *gorm.DB, a *models.Account) error {
	if err := tx.Delete(a).Error; err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := tx.Unscoped().Delete(&models.User{}, a.OwnerID).Error; err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	logger.Log.Info("account deleted", zap.Uint("account_id", a.ID), zap.Uint("owner_id", a.OwnerID))
	return nil
}
