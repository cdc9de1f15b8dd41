package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"github.com/GiorgiUbiria/fakebank/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Caller is the authenticated identity behind a request. Superuser is set by
// the identity layer for the single reserved superuser name; it is unrelated
// to the account's admin flag.
type Caller struct {
	IdentityID uint
	Username   string
	Superuser  bool
}

// NewIdentity carries the fields needed to create a login identity.
type NewIdentity struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// IdentityCreator creates login identities inside a ledger transaction.
// It must return ErrDuplicateIdentity when the username is taken.
type IdentityCreator interface {
	CreateIdentity(tx *gorm.DB, in NewIdentity) (models.User, error)
}

// Dashboard is the admin overview. TotalBalance is a plain sum of live
// account balances and carries no invariant.
type Dashboard struct {
	NonAdminAccounts int64
	TotalBalance     decimal.Decimal
	Logs             []models.AdminLog
}

// Authority gates privileged operations. Admin capability comes from the
// caller's account flag; bank reset additionally needs the superuser capability.
type Authority struct {
	store      *Store
	registry   *Registry
	engine     *Engine
	log        *AdminLog
	identities IdentityCreator
}

func NewAuthority(store *Store, registry *Registry, engine *Engine, log *AdminLog, identities IdentityCreator) *Authority {
	return &Authority{store: store, registry: registry, engine: engine, log: log, identities: identities}
}

// RequireAdmin returns the caller's account if it is an admin account.
func (a *Authority) RequireAdmin(ctx context.Context, c Caller) (models.Account, error) {
	acct, err := a.registry.FindByOwner(ctx, c.IdentityID)
	if errors.Is(err, ErrNotFound) {
		return models.Account{}, ErrNotAuthorized
	}
	if err != nil {
		return models.Account{}, err
	}
	if !acct.IsAdmin {
		return models.Account{}, ErrNotAuthorized
	}
	return acct, nil
}

func (a *Authority) CreateAdminAccount(ctx context.Context, c Caller, in NewIdentity) (models.Account, error) {
	admin, err := a.RequireAdmin(ctx, c)
	if err != nil {
		return models.Account{}, err
	}
	var acct models.Account
	err = a.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := a.identities.CreateIdentity(tx, in)
		if err != nil {
			return err
		}
		acct, err = a.registry.CreateAccountTx(tx, NewAccount{
			OwnerID:   user.ID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			IsAdmin:   true,
		})
		if err != nil {
			return err
		}
		_, err = a.log.record(tx, admin.ID, fmt.Sprintf("Created admin account for %s", in.Username))
		return err
	})
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

func (a *Authority) EditBalance(ctx context.Context, c Caller, accountID uint, balance decimal.Decimal) (models.Account, error) {
	if err := validateBalance(balance); err != nil {
		return models.Account{}, err
	}
	return a.manage(ctx, c, accountID, func(tx *gorm.DB, t *models.Account) (string, error) {
		if err := setBalance(tx, t, balance); err != nil {
			return "", err
		}
		return fmt.Sprintf("Edited balance for account %s to $%s", t.AccountNumber, balance.StringFixed(2)), nil
	})
}

func (a *Authority) SuspendAccount(ctx context.Context, c Caller, accountID uint) (models.Account, error) {
	return a.manage(ctx, c, accountID, func(tx *gorm.DB, t *models.Account) (string, error) {
		if err := suspend(tx, t); err != nil {
			return "", err
		}
		return fmt.Sprintf("Suspended account %s", t.AccountNumber), nil
	})
}

func (a *Authority) CloseAccount(ctx context.Context, c Caller, accountID uint) (models.Account, error) {
	return a.manage(ctx, c, accountID, func(tx *gorm.DB, t *models.Account) (string, error) {
		if err := closeAccount(tx, t); err != nil {
			return "", err
		}
		return fmt.Sprintf("Closed account %s", t.AccountNumber), nil
	})
}

func (a *Authority) DeleteAccount(ctx context.Context, c Caller, accountID uint) error {
	_, err := a.manage(ctx, c, accountID, func(tx *gorm.DB, t *models.Account) (string, error) {
		if err := remove(tx, t); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted account %s and user", t.AccountNumber), nil
	})
	return err
}

// manage runs fn against a non-admin target account and logs the action it
// describes in the same transaction. Admin accounts are not manageable and
// report ErrNotFound.
func (a *Authority) manage(ctx context.Context, c Caller, accountID uint, fn func(tx *gorm.DB, t *models.Account) (string, error)) (models.Account, error) {
	admin, err := a.RequireAdmin(ctx, c)
	if err != nil {
		return models.Account{}, err
	}
	var out models.Account
	err = a.store.mutate(ctx, []uint{accountID}, func(tx *gorm.DB, accts map[uint]*models.Account) error {
		t, err := pick(accts, accountID)
		if err != nil {
			return err
		}
		if t.IsAdmin {
			return ErrNotFound
		}
		action, err := fn(tx, t)
		if err != nil {
			return err
		}
		if _, err := a.log.record(tx, admin.ID, action); err != nil {
			return err
		}
		out = *t
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	logger.Log.Info("admin action", zap.Uint("admin_account_id", admin.ID), zap.Uint("account_id", accountID))
	return out, nil
}

// ResetBank is reserved for the superuser. The reset entry is authored by the
// superuser's own account, which must be an admin account.
func (a *Authority) ResetBank(ctx context.Context, c Caller) error {
	if !c.Superuser {
		return ErrNotAuthorized
	}
	acct, err := a.registry.FindByOwner(ctx, c.IdentityID)
	if errors.Is(err, ErrNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}
	return a.engine.ResetBank(ctx, acct)
}

func (a *Authority) ListAccounts(ctx context.Context, c Caller) ([]models.Account, error) {
	if _, err := a.RequireAdmin(ctx, c); err != nil {
		return nil, err
	}
	return a.registry.ListNonAdmin(ctx)
}

func (a *Authority) ListTransactions(ctx context.Context, c Caller) ([]models.Transaction, error) {
	if _, err := a.RequireAdmin(ctx, c); err != nil {
		return nil, err
	}
	return a.engine.AllTransactions(ctx)
}

func (a *Authority) AdminLogs(ctx context.Context, c Caller) ([]models.AdminLog, error) {
	if _, err := a.RequireAdmin(ctx, c); err != nil {
		return nil, err
	}
	return a.log.ListAll(ctx)
}

func (a *Authority) Dashboard(ctx context.Context, c Caller) (Dashboard, error) {
	if _, err := a.RequireAdmin(ctx, c); err != nil {
		return Dashboard{}, err
	}
	count, err := a.registry.CountNonAdmin(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	var balances []decimal.Decimal
	if err := a.store.db.WithContext(ctx).Model(&models.Account{}).Pluck("balance", &balances).Error; err != nil {
		return Dashboard{}, fmt.Errorf("sum balances: %w", err)
	}
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b)
	}
	logs, err := a.log.ListAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{NonAdminAccounts: count, TotalBalance: total, Logs: logs}, nil
}
