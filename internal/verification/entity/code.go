package entity

import (
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/valueobject"
)

// Code is one issued one-time pass and its verification state.
type Code struct {
	ID               int64
	VerificationCode string
	OneTimePass      string
	Address          string
	AddressKind      AddressKind
	VerificationData valueobject.JSONMap
	Attempts         int
	Validated        bool
	CreatedAt        time.Time
}

// IncrementAttempts records one failed verification.
func (c *Code) IncrementAttempts() {
	c.Attempts++
}

// MarkValidated is terminal; a validated code is never looked up again.
func (c *Code) MarkValidated() {
	c.Validated = true
}

// AttemptsExhausted reports whether prior failures reached maxAttempts.
func (c *Code) AttemptsExhausted(maxAttempts int) bool {
	return maxAttempts <= c.Attempts
}

func (c *Code) ExpiresAt(validity time.Duration) time.Time {
	return c.CreatedAt.Add(validity)
}
