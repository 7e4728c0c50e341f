package entity

import (
	"strings"

	"github.com/shandysiswandi/gootp/internal/pkg/validator"
)

type AddressKind int16

const (
	// AddressKindUnknown is an address that is neither an email nor a phone number.
	AddressKindUnknown AddressKind = 0

	// AddressKindEmail is an email address.
	AddressKindEmail AddressKind = 1

	// AddressKindPhone is a phone number, optionally prefixed with "+".
	AddressKindPhone AddressKind = 2
)

func (ak AddressKind) String() string {
	switch ak {
	case AddressKindEmail:
		return "email"
	case AddressKindPhone:
		return "phone"
	default:
		return "unknown"
	}
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizeAddress canonicalizes raw so that the same contact always maps to
// the same stored value. Emails are lower-cased, phones lose their separators.
func NormalizeAddress(raw string) (string, AddressKind) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", AddressKindUnknown
	}

	if strings.Contains(addr, "@") {
		return strings.ToLower(addr), AddressKindEmail
	}

	if phone := phoneSeparators.Replace(addr); validator.IsPhone(phone) {
		return phone, AddressKindPhone
	}

	return addr, AddressKindUnknown
}
