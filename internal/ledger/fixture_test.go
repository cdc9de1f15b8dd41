package ledger

import (
	"context"
	"testing"

	"github.com/GiorgiUbiria/fakebank/internal/idgen"
	"github.com/GiorgiUbiria/fakebank/internal/models"
	"github.com/GiorgiUbiria/fakebank/internal/store/storetest"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeIdentities stores identities without hashing; enough for ledger tests.
type fakeIdentities struct{}

func (fakeIdentities) CreateIdentity(tx *gorm.DB, in NewIdentity) (models.User, error) {
	u := models.User{Username: in.Username, FirstName: in.FirstName, LastName: in.LastName, Password: in.Password}
	if err := tx.Create(&u).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.User{}, ErrDuplicateIdentity
		}
		return models.User{}, err
	}
	return u, nil
}

type fixture struct {
	db       *gorm.DB
	store    *Store
	registry *Registry
	engine   *Engine
	log      *AdminLog
	auth     *Authority
}

func newFixture(t *testing.T, gen idgen.Generator) *fixture {
	t.Helper()
	db := storetest.Open(t)
	s := NewStore(db)
	reg := NewRegistry(s, gen)
	log := NewAdminLog(s)
	eng := NewEngine(s, reg, log)
	return &fixture{
		db:       db,
		store:    s,
		registry: reg,
		engine:   eng,
		log:      log,
		auth:     NewAuthority(s, reg, eng, log, fakeIdentities{}),
	}
}

func (f *fixture) user(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username, FirstName: username, LastName: "Test"}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// open creates an identity with a regular account.
func (f *fixture) open(t *testing.T, username string) models.Account {
	t.Helper()
	u := f.user(t, username)
	a, err := f.registry.CreateAccount(context.Background(), u.ID, u.FirstName, u.LastName)
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", username, err)
	}
	return a
}

// admin creates an identity with an admin account and returns its caller.
func (f *fixture) admin(t *testing.T, username string) (models.Account, Caller) {
	t.Helper()
	u := f.user(t, username)
	a, err := f.registry.CreateAccountTx(f.db, NewAccount{OwnerID: u.ID, FirstName: username, IsAdmin: true})
	if err != nil {
		t.Fatalf("create admin %s: %v", username, err)
	}
	return a, Caller{IdentityID: u.ID, Username: username}
}

func (f *fixture) balance(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	a, err := f.registry.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%d): %v", id, err)
	}
	return a.Balance
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func wantBalance(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(money(want)) {
		t.Fatalf("balance=%s want=%s", got.StringFixed(2), want)
	}
}
