// Package credentials implements the credential policy: one-way hashing of
// account secrets and the role sets handed to new accounts.
package credentials

import (
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes secrets with bcrypt. It holds no mutable state and is safe
// for concurrent use.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a policy hashing at the given cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns a salted hash of secret. Two calls with the same secret
// produce different hashes that both verify.
func (b *Bcrypt) Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// Verify reports whether secret matches the stored hash.
func (b *Bcrypt) Verify(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func (b *Bcrypt) DefaultRoles() []string {
	return []string{common.RoleUser}
}

func (b *Bcrypt) AdminRoles() []string {
	return []string{common.RoleUser, common.RoleAdmin}
}
