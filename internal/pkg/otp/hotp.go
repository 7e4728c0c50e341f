package otp

import (
	"encoding/base32"
	"errors"
	"sync/atomic"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

var (
	// ErrEmptySecret is returned when an HOTP secret is missing.
	ErrEmptySecret = errors.New("otp: hotp secret must not be empty")
	// ErrHOTPLength is returned for lengths HOTP cannot produce.
	ErrHOTPLength = errors.New("otp: hotp length must be 6 or 8")
)

// HOTPSymbols is the only alphabet HOTP passwords are drawn from.
const HOTPSymbols = "0123456789"

// HOTP generates numeric passwords from a shared secret and a moving counter.
type HOTP struct {
	secret  string
	digits  otp.Digits
	counter atomic.Uint64
}

// NewHOTP returns an HOTP generator. secret is raw key material; it is
// base32 encoded for the underlying library. length must be 6 or 8.
// The counter starts at the current unix time in
// nanoseconds so restarts do not replay earlier passwords.
func NewHOTP(secret []byte, length int) (*HOTP, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	var digits otp.Digits
	switch length {
	case 6:
		digits = otp.DigitsSix
	case 8:
		digits = otp.DigitsEight
	default:
		return nil, ErrHOTPLength
	}

	h := &HOTP{
		secret: base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret),
		digits: digits,
	}
	h.counter.Store(uint64(time.Now().UnixNano()))

	return h, nil
}

// Generate returns the password for the next counter value.
func (h *HOTP) Generate() (string, error) {
	return h.at(h.counter.Add(1))
}

func (h *HOTP) at(counter uint64) (string, error) {
	return hotp.GenerateCodeCustom(h.secret, counter, hotp.ValidateOpts{
		Digits:    h.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
