package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/GiorgiUbiria/fakebank/internal/idgen"
	"github.com/GiorgiUbiria/fakebank/internal/models"
)

// queue hands out fixed identifiers in order.
func queue(ids ...string) idgen.Generator {
	var mu sync.Mutex
	return idgen.Func(func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	})
}

func TestCreateAccountDefaults(t *testing.T) {
	f := newFixture(t, nil)
	a := f.open(t, "alice")

	wantBalance(t, a.Balance, "50.00")
	if len(a.AccountNumber) != 10 || len(a.PaymentNumber) != 10 {
		t.Fatalf("numbers %q/%q should be 10 chars", a.AccountNumber, a.PaymentNumber)
	}
	if a.IsAdmin || a.IsSuspended || a.IsClosed {
		t.Fatalf("new account should be a plain active account: %+v", a)
	}
	if a.FirstName != "alice" || a.LastName != "Test" {
		t.Fatalf("names=%q %q", a.FirstName, a.LastName)
	}
}

func TestCreateAccountDefaultNames(t *testing.T) {
	f := newFixture(t, nil)
	u := f.user(t, "anon")
	a, err := f.registry.CreateAccount(context.Background(), u.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if a.FirstName != "Default" || a.LastName != "User" {
		t.Fatalf("names=%q %q want Default User", a.FirstName, a.LastName)
	}
}

func TestCreateAccountDuplicateOwner(t *testing.T) {
	f := newFixture(t, nil)
	a := f.open(t, "alice")
	if _, err := f.registry.CreateAccount(context.Background(), a.OwnerID, "a", "b"); !errors.Is(err, ErrDuplicateOwner) {
		t.Fatalf("want ErrDuplicateOwner, got %v", err)
	}
}

func TestCreateAccountRetriesCollisions(t *testing.T) {
	f := newFixture(t, queue(
		"aaaaaaaaaa", "bbbbbbbbbb", // first account
		"aaaaaaaaaa", "cccccccccc", // account number collides
		"dddddddddd", "bbbbbbbbbb", // payment number collides
		"eeeeeeeeee", "ffffffffff",
	))
	f.open(t, "alice")
	b := f.open(t, "bob")
	if b.AccountNumber != "eeeeeeeeee" || b.PaymentNumber != "ffffffffff" {
		t.Fatalf("got %s/%s, want the first collision-free pair", b.AccountNumber, b.PaymentNumber)
	}
}

func TestCreateAccountIdentifierExhausted(t *testing.T) {
	f := newFixture(t, idgen.Func(func() string { return "samesame00" }))
	f.open(t, "alice")

	u := f.user(t, "bob")
	if _, err := f.registry.CreateAccount(context.Background(), u.ID, "Bob", "B"); !errors.Is(err, ErrIdentifierExhausted) {
		t.Fatalf("want ErrIdentifierExhausted, got %v", err)
	}
	if n := f.count(t, &models.Account{}); n != 1 {
		t.Fatalf("accounts=%d want 1", n)
	}
}

func TestConcurrentCreateAccountUniqueNumbers(t *testing.T) {
	f := newFixture(t, nil)
	const n = 40
	users := make([]models.User, n)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("user%02d", i))
	}

	var wg sync.WaitGroup
	accts := make([]models.Account, n)
	errs := make([]error, n)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accts[i], errs[i] = f.registry.CreateAccount(context.Background(), users[i].ID, "U", "V")
		}(i)
	}
	wg.Wait()

	accNums := make(map[string]bool)
	payNums := make(map[string]bool)
	for i, a := range accts {
		if errs[i] != nil {
			t.Fatalf("create %d: %v", i, errs[i])
		}
		if accNums[a.AccountNumber] || payNums[a.PaymentNumber] {
			t.Fatalf("duplicate identifier in %+v", a)
		}
		accNums[a.AccountNumber] = true
		payNums[a.PaymentNumber] = true
	}
}

func TestFindersReportNotFound(t *testing.T) {
	f := newFixture(t, nil)
	a := f.open(t, "alice")
	ctx := context.Background()

	if got, err := f.registry.FindByPaymentNumber(ctx, a.PaymentNumber); err != nil || got.ID != a.ID {
		t.Fatalf("FindByPaymentNumber: %v %+v", err, got)
	}
	if got, err := f.registry.FindByAccountNumber(ctx, a.AccountNumber); err != nil || got.ID != a.ID {
		t.Fatalf("FindByAccountNumber: %v %+v", err, got)
	}
	if got, err := f.registry.FindByOwner(ctx, a.OwnerID); err != nil || got.ID != a.ID {
		t.Fatalf("FindByOwner: %v %+v", err, got)
	}

	if _, err := f.registry.FindByPaymentNumber(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := f.registry.FindByOwner(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := f.registry.FindByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestEnsureAccountCreatesOnce(t *testing.T) {
	f := newFixture(t, nil)
	u := f.user(t, "lazy")
	ctx := context.Background()

	a1, err := f.registry.EnsureAccount(ctx, u.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	a2, err := f.registry.EnsureAccount(ctx, u.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if a1.ID != a2.ID {
		t.Fatalf("EnsureAccount created twice: %d vs %d", a1.ID, a2.ID)
	}
}

func TestListNonAdminOrderedByUsername(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "carol")
	f.open(t, "alice")
	f.admin(t, "boss")
	f.open(t, "bob")

	got, err := f.registry.ListNonAdmin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, a := range got {
		names = append(names, a.FirstName)
	}
	if fmt.Sprint(names) != "[alice bob carol]" {
		t.Fatalf("order=%v", names)
	}
	n, err := f.registry.CountNonAdmin(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("CountNonAdmin=%d err=%v", n, err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	s := f.open(t, "sus")
	got, err := f.registry.SetSuspended(ctx, s.ID)
	if err != nil || !got.IsSuspended {
		t.Fatalf("SetSuspended: %v %+v", err, got)
	}
	if _, err := f.registry.SetSuspended(ctx, s.ID); !errors.Is(err, ErrAlreadySuspended) {
		t.Fatalf("want ErrAlreadySuspended, got %v", err)
	}
	if _, err := f.registry.SetClosed(ctx, s.ID); !errors.Is(err, ErrAlreadySuspended) {
		t.Fatalf("closing a suspended account: want ErrAlreadySuspended, got %v", err)
	}

	c := f.open(t, "clo")
	got, err = f.registry.SetClosed(ctx, c.ID)
	if err != nil || !got.IsClosed {
		t.Fatalf("SetClosed: %v %+v", err, got)
	}
	wantBalance(t, f.balance(t, c.ID), "0.00")
	if _, err := f.registry.SetClosed(ctx, c.ID); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("want ErrAlreadyClosed, got %v", err)
	}
	if _, err := f.registry.SetSuspended(ctx, c.ID); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("suspending a closed account: want ErrAlreadyClosed, got %v", err)
	}

	if _, err := f.registry.SetSuspended(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesAccountAndIdentity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.open(t, "gone")
	if _, err := f.registry.SetSuspended(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.registry.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.registry.FindByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if n := f.count(t, &models.User{}); n != 0 {
		t.Fatalf("identity survived delete, users=%d", n)
	}
	// The row is kept out of sight so its numbers stay reserved.
	var hidden models.Account
	if err := f.db.Unscoped().Where("payment_number = ?", a.PaymentNumber).First(&hidden).Error; err != nil {
		t.Fatalf("deleted account numbers should remain reserved: %v", err)
	}
	if err := f.registry.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}
