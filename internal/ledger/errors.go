package ledger

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateOwner         = errors.New("owner already has an account")
	ErrDuplicateIdentity      = errors.New("username is already taken")
	ErrAlreadySuspended       = errors.New("account is already suspended")
	ErrAlreadyClosed          = errors.New("account is already closed")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidBalance         = errors.New("balance cannot be less than -5.00")
	ErrRecipientNotFound      = errors.New("recipient payment number not found")
	ErrSelfTransferNotAllowed = errors.New("cannot transfer to your own account")
	ErrNotAuthorized          = errors.New("not authorized")
	ErrIdentifierExhausted    = errors.New("could not allocate unique account identifiers")
	ErrInvalidAmount          = errors.New("amount must be positive with at most two decimal places")
	ErrAccountSuspended       = errors.New("account is suspended")
	ErrAccountClosed          = errors.New("account is closed")
)
