package inbound

import (
	"net/http"
	"time"
)

type GenerateRequest struct {
	Address string         `json:"address"`
	Data    map[string]any `json:"data"`
}

// GenerateResponse never carries the pass; delivery happens out of band.
type GenerateResponse struct {
	VerificationCode string    `json:"verification_code"`
	Address          string    `json:"address"`
	AddressKind      string    `json:"address_kind"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func (GenerateResponse) StatusCode() int {
	return http.StatusCreated
}

func (GenerateResponse) Message() string {
	return "Verification code has been sent."
}

type VerifyRequest struct {
	VerificationCode string `json:"verification_code"`
	Pass             string `json:"pass"`
}

type VerifyResponse struct {
	VerificationCode string         `json:"verification_code"`
	Address          string         `json:"address"`
	VerificationData map[string]any `json:"verification_data,omitempty"`
	Attempts         int            `json:"attempts"`
}

func (VerifyResponse) Message() string {
	return "Verification code is valid."
}
