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

// Engine applies balance changes. Every change runs in one database
// transaction together with the transaction records it produces.
type Engine struct {
	store    *Store
	registry *Registry
	log      *AdminLog
}

func NewEngine(store *Store, registry *Registry, log *AdminLog) *Engine {
	return &Engine{store: store, registry: registry, log: log}
}

func (e *Engine) Deposit(ctx context.Context, accountID uint, amount decimal.Decimal) (models.Account, error) {
	if err := validateAmount(amount); err != nil {
		return models.Account{}, err
	}
	var out models.Account
	err := e.store.mutate(ctx, []uint{accountID}, func(tx *gorm.DB, accts map[uint]*models.Account) error {
		a, err := pick(accts, accountID)
		if err != nil {
			return err
		}
		if err := usable(a); err != nil {
			return err
		}
		a.Balance = a.Balance.Add(amount)
		if err := saveBalance(tx, a); err != nil {
			return err
		}
		if err := e.record(tx, a.ID, a.ID, amount); err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	logger.Log.Info("deposit", zap.Uint("account_id", accountID), zap.String("amount", amount.StringFixed(2)))
	return out, nil
}

func (e *Engine) Withdraw(ctx context.Context, accountID uint, amount decimal.Decimal) (models.Account, error) {
	if err := validateAmount(amount); err != nil {
		return models.Account{}, err
	}
	var out models.Account
	err := e.store.mutate(ctx, []uint{accountID}, func(tx *gorm.DB, accts map[uint]*models.Account) error {
		a, err := pick(accts, accountID)
		if err != nil {
			return err
		}
		if err := usable(a); err != nil {
			return err
		}
		next := a.Balance.Sub(amount)
		if next.LessThan(OverdraftFloor) {
			return ErrInsufficientFunds
		}
		a.Balance = next
		if err := saveBalance(tx, a); err != nil {
			return err
		}
		if err := e.record(tx, a.ID, a.ID, amount.Neg()); err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	logger.Log.Info("withdrawal", zap.Uint("account_id", accountID), zap.String("amount", amount.StringFixed(2)))
	return out, nil
}

// Transfer moves amount from the sender to the account holding paymentNumber
// and returns the sender's updated account. It writes two records for the
// same movement: a debit (-amount) and a credit (+amount), both from sender
// to recipient.
func (e *Engine) Transfer(ctx context.Context, senderID uint, paymentNumber string, amount decimal.Decimal) (models.Account, error) {
	if err := validateAmount(amount); err != nil {
		return models.Account{}, err
	}
	recipient, err := e.registry.FindByPaymentNumber(ctx, paymentNumber)
	if errors.Is(err, ErrNotFound) {
		return models.Account{}, ErrRecipientNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	if recipient.ID == senderID {
		return models.Account{}, ErrSelfTransferNotAllowed
	}

	var out models.Account
	err = e.store.mutate(ctx, []uint{senderID, recipient.ID}, func(tx *gorm.DB, accts map[uint]*models.Account) error {
		from, err := pick(accts, senderID)
		if err != nil {
			return err
		}
		to, ok := accts[recipient.ID]
		if !ok {
			return ErrRecipientNotFound
		}
		if err := usable(from); err != nil {
			return err
		}
		if err := usable(to); err != nil {
			return err
		}
		next := from.Balance.Sub(amount)
		if next.LessThan(OverdraftFloor) {
			return ErrInsufficientFunds
		}
		from.Balance = next
		to.Balance = to.Balance.Add(amount)
		if err := saveBalance(tx, from); err != nil {
			return err
		}
		if err := saveBalance(tx, to); err != nil {
			return err
		}
		if err := e.record(tx, from.ID, to.ID, amount.Neg()); err != nil {
			return err
		}
		if err := e.record(tx, from.ID, to.ID, amount); err != nil {
			return err
		}
		out = *from
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	logger.Log.Info("transfer",
		zap.Uint("from_account_id", senderID),
		zap.Uint("to_account_id", recipient.ID),
		zap.String("amount", amount.StringFixed(2)))
	return out, nil
}

// AdminSetBalance overwrites a balance. No transaction record is written;
// the change is only visible through the admin log entry the caller records.
func (e *Engine) AdminSetBalance(ctx context.Context, accountID uint, balance decimal.Decimal) (models.Account, error) {
	if err := validateBalance(balance); err != nil {
		return models.Account{}, err
	}
	var out models.Account
	err := e.store.mutate(ctx, []uint{accountID}, func(tx *gorm.DB, accts map[uint]*models.Account) error {
		a, err := pick(accts, accountID)
		if err != nil {
			return err
		}
		if err := setBalance(tx, a, balance); err != nil {
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

// ResetBank restores the initial balance on every account that is not
// suspended, wipes all transaction and admin log records, and logs the reset
// as its only surviving admin log entry.
func (e *Engine) ResetBank(ctx context.Context, admin models.Account) error {
	unlock := e.store.locks.lockAll()
	defer unlock()

	err := e.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("is_suspended = ?", false).Update("balance", InitialBalance).Error; err != nil {
			return fmt.Errorf("reset balances: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if err := clearLogs(tx); err != nil {
			return err
		}
		_, err := e.log.record(tx, admin.ID, "Reset bank to initial state")
		return err
	})
	if err != nil {
		return err
	}
	logger.Log.Warn("bank reset", zap.Uint("admin_account_id", admin.ID))
	return nil
}

// AccountTransactions lists records sent or received by the account, newest first.
func (e *Engine) AccountTransactions(ctx context.Context, accountID uint) ([]models.Transaction, error) {
	var out []models.Transaction
	err := e.store.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	return out, nil
}

func (e *Engine) AllTransactions(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	if err := e.store.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (e *Engine) record(tx *gorm.DB, from, to uint, amount decimal.Decimal) error {
	t := models.Transaction{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        amount,
		CreatedAt:     e.store.clock.now(),
	}
	if err := tx.Create(&t).Error; err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

func usable(a *models.Account) error {
	switch {
	case a.IsSuspended:
		return ErrAccountSuspended
	case a.IsClosed:
		return ErrAccountClosed
	}
	return nil
}

func setBalance(tx *gorm.DB, a *models.Account, balance decimal.Decimal) error {
	a.Balance = balance
	return saveBalance(tx, a)
}

func saveBalance(tx *gorm.DB, a *models.Account) error {
	if err := tx.Model(a).Update("balance", a.Balance).Error; err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}
