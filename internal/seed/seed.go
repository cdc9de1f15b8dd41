package seed

import (
	"context"
	"fmt"

	"github.com/GiorgiUbiria/fakebank/internal/identity"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"go.uber.org/zap"
)

// Run bootstraps the superuser identity and its admin account. It is safe to
// call on every start; an existing superuser is left untouched.
func Run(ctx context.Context, identities *identity.Service, superuser, password string) error {
	if superuser == "" {
		logger.Log.Warn("no superuser configured, skipping seed")
		return nil
	}
	if password == "" {
		logger.Log.Warn("superuser password not set, skipping seed", zap.String("superuser", superuser))
		return nil
	}

	acct, err := identities.EnsureSuperuser(ctx, password)
	if err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}
	logger.Log.Info("superuser ready",
		zap.String("superuser", superuser),
		zap.String("account_number", acct.AccountNumber))
	return nil
}
