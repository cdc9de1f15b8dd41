package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/GiorgiUbiria/fakebank/internal/models"
	"gorm.io/gorm"
)

const maxActionLen = 200

// AdminLog is the append-only trail of privileged actions.
type AdminLog struct {
	store *Store
}

func NewAdminLog(store *Store) *AdminLog {
	return &AdminLog{store: store}
}

// Record appends an entry authored by admin. The author must be an admin
// account at the time of writing.
func (l *AdminLog) Record(ctx context.Context, admin models.Account, action string) (models.AdminLog, error) {
	var entry models.AdminLog
	err := l.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = l.record(tx, admin.ID, action)
		return err
	})
	return entry, err
}

func (l *AdminLog) record(tx *gorm.DB, adminID uint, action string) (models.AdminLog, error) {
	var author models.Account
	if err := first(tx, &author, "id = ?", adminID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.AdminLog{}, ErrNotAuthorized
		}
		return models.AdminLog{}, err
	}
	if !author.IsAdmin {
		return models.AdminLog{}, ErrNotAuthorized
	}
	if r := []rune(action); len(r) > maxActionLen {
		action = string(r[:maxActionLen])
	}
	entry := models.AdminLog{AdminID: adminID, Action: action, CreatedAt: l.store.clock.now()}
	if err := tx.Create(&entry).Error; err != nil {
		return models.AdminLog{}, fmt.Errorf("record admin action: %w", err)
	}
	return entry, nil
}

// ListAll returns every entry, newest first.
func (l *AdminLog) ListAll(ctx context.Context) ([]models.AdminLog, error) {
	var out []models.AdminLog
	if err := l.store.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list admin log: %w", err)
	}
	return out, nil
}

// Clear drops every entry. Only a bank reset should call it.
func (l *AdminLog) Clear(ctx context.Context) error {
	return clearLogs(l.store.db.WithContext(ctx))
}

func clearLogs(tx *gorm.DB) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AdminLog{}).Error; err != nil {
		return fmt.Errorf("clear admin log: %w", err)
	}
	return nil
}
