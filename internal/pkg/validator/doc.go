// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface. The go-playground/validator
// v10 implementation registers English messages and the custom "contact" rule,
// which accepts either an email address or a phone number.
package validator
