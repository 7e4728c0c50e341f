package event

import "time"

const VerificationCodeIssuedDestination string = "verification_code_issued"

// VerificationCodeIssuedMessage tells the delivery side which pass to send to Address.
type VerificationCodeIssuedMessage struct {
	EventID          string    `json:"event_id"`
	VerificationCode string    `json:"verification_code"`
	OneTimePass      string    `json:"one_time_pass"`
	Address          string    `json:"address"`
	AddressKind      string    `json:"address_kind"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}
