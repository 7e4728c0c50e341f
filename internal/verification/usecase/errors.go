package usecase

import (
	"errors"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
)

var (
	// ErrLimit covers issuance throttling and verification lockout.
	ErrLimit = errors.New("verification: limit exceeded")

	// ErrNotFound means no unexpired, unvalidated code matches.
	ErrNotFound = errors.New("verification: code not found")

	// ErrVerification means the supplied pass is wrong.
	ErrVerification = errors.New("verification: incorrect pass")
)

func newLimitError(msg string) error {
	return goerror.NewBusinessCause(ErrLimit, msg, goerror.CodeTooManyRequest)
}

func newNotFoundError() error {
	return goerror.NewBusinessCause(ErrNotFound, "Code not found or expired", goerror.CodeNotFound)
}

func newVerificationError() error {
	return goerror.NewBusinessCause(ErrVerification, "Incorrect code", goerror.CodeUnauthorized)
}
