package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// CodeGenerator produces the one-time numeric codes used for email
// verification and password reset. Codes are uniform over [100000, 999999],
// always six digits.
type CodeGenerator struct {
	ttl time.Duration
}

func NewCodeGenerator(ttl time.Duration) *CodeGenerator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CodeGenerator{ttl: ttl}
}

// Generate returns a fresh code and its expiry. Consecutive calls are
// independent; no uniqueness across calls is guaranteed.
func (g *CodeGenerator) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read entropy: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+codeMin)
	return code, time.Now().Add(g.ttl), nil
}

func (g *CodeGenerator) TTL() time.Duration {
	return g.ttl
}
