// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. Tests swap in a Fixed clock so that time windows
// (issuance thresholds, validity periods) can be crossed deterministically.
package clock
