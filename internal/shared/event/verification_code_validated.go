package event

import "time"

const VerificationCodeValidatedDestination string = "verification_code_validated"

type VerificationCodeValidatedMessage struct {
	EventID          string         `json:"event_id"`
	VerificationCode string         `json:"verification_code"`
	Address          string         `json:"address"`
	VerificationData map[string]any `json:"verification_data,omitempty"`
	Attempts         int            `json:"attempts"`
	ValidatedAt      time.Time      `json:"validated_at"`
}
