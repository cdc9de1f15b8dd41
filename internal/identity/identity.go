// Package identity manages login identities. Creating an identity opens its
// ledger account in the same transaction through an explicit registry call.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GiorgiUbiria/fakebank/internal/ledger"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"github.com/GiorgiUbiria/fakebank/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = errors.New("username and password are required")
	ErrSuperuserConflict  = errors.New("superuser name is held by an identity without an admin account")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type Service struct {
	db        *gorm.DB
	registry  *ledger.Registry
	hasher    PasswordHasher
	superuser string
}

var _ ledger.IdentityCreator = (*Service)(nil)

func New(db *gorm.DB, registry *ledger.Registry, hasher PasswordHasher, superuser string) *Service {
	return &Service{db: db, registry: registry, hasher: hasher, superuser: superuser}
}

// CreateIdentity stores a new identity with a hashed password inside tx.
// The superuser name is reserved for EnsureSuperuser and reported as taken.
func (s *Service) CreateIdentity(tx *gorm.DB, in ledger.NewIdentity) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if s.reserved(in.Username) {
		return models.User{}, ledger.ErrDuplicateIdentity
	}
	return s.createIdentity(tx, in)
}

func (s *Service) reserved(username string) bool {
	return s.superuser != "" && strings.EqualFold(username, s.superuser)
}

func (s *Service) createIdentity(tx *gorm.DB, in ledger.NewIdentity) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return models.User{}, ErrMissingFields
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	var n int64
	if err := tx.Model(&models.User{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return models.User{}, fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return models.User{}, ledger.ErrDuplicateIdentity
	}

	user := models.User{
		Username:  in.Username,
		Email:     strings.TrimSpace(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}
	if err := tx.Create(&user).Error; err != nil {
		if ledger.IsUniqueViolation(err) {
			return models.User{}, ledger.ErrDuplicateIdentity
		}
		return models.User{}, fmt.Errorf("create identity: %w", err)
	}
	return user, nil
}

// Register creates an identity and its regular account atomically.
func (s *Service) Register(ctx context.Context, in ledger.NewIdentity) (models.User, models.Account, error) {
	var (
		user models.User
		acct models.Account
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.CreateIdentity(tx, in)
		if err != nil {
			return err
		}
		acct, err = s.registry.CreateAccountTx(tx, ledger.NewAccount{
			OwnerID:   user.ID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		})
		return err
	})
	if err != nil {
		return models.User{}, models.Account{}, err
	}
	logger.Log.Info("identity registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, acct, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find identity: %w", err)
	}
	if err := s.hasher.Compare(user.Password, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ledger.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find identity: %w", err)
	}
	return user, nil
}

// Caller resolves an identity id into the ledger's view of the caller.
func (s *Service) Caller(ctx context.Context, userID uint) (ledger.Caller, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return ledger.Caller{}, err
	}
	return s.CallerFor(user), nil
}

// CallerFor builds the caller for an already loaded identity.
func (s *Service) CallerFor(user models.User) ledger.Caller {
	return ledger.Caller{
		IdentityID: user.ID,
		Username:   user.Username,
		Superuser:  s.superuser != "" && user.Username == s.superuser,
	}
}

// EnsureSuperuser makes sure the reserved superuser identity exists and owns
// an admin account. An existing superuser keeps its password. An identity
// under the reserved name that has no admin account was not created here and
// is refused with ErrSuperuserConflict.
func (s *Service) EnsureSuperuser(ctx context.Context, password string) (models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("username = ?", s.superuser).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, err = s.createIdentity(tx, ledger.NewIdentity{
				Username:  s.superuser,
				Password:  password,
				FirstName: "Root",
				LastName:  "User",
			})
			if err != nil {
				return err
			}
			acct, err = s.registry.CreateAccountTx(tx, ledger.NewAccount{
				OwnerID:   user.ID,
				FirstName: user.FirstName,
				LastName:  user.LastName,
				IsAdmin:   true,
			})
			return err
		case err != nil:
			return fmt.Errorf("find superuser: %w", err)
		}

		err = tx.Where("owner_id = ?", user.ID).First(&acct).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrSuperuserConflict
		case err != nil:
			return fmt.Errorf("find superuser account: %w", err)
		}
		if !acct.IsAdmin {
			return ErrSuperuserConflict
		}
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}
