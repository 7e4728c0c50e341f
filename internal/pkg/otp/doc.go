// Package otp generates one-time passwords.
//
// Alphabet draws each symbol independently and uniformly from a configured
// alphabet. Its randomness Source is injectable so tests can replay a seeded
// sequence. HOTP derives numeric passwords from a server secret and a counter
// following RFC 4226.
package otp
