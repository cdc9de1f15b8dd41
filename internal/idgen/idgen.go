// Package idgen produces the opaque account and payment numbers.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// Length of every generated identifier.
const Length = 10

// Generator returns a fresh identifier on each call. It does not check
// uniqueness; the account registry retries on collisions.
type Generator interface {
	Generate() string
}

// UUID truncates a random (v4) UUID, hex digits only.
type UUID struct{}

func (UUID) Generate() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:Length]
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) Generate() string { return f() }
