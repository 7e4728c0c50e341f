package entity

// EventGeneratingOneTimePassword is emitted before a pass is generated.
const EventGeneratingOneTimePassword = "generating_one_time_password"

// GenerationEvent lets hooks supply the pass for an address instead of the
// configured generator.
type GenerationEvent struct {
	Name    string
	Address string

	pass     string
	modified bool
}

func NewGenerationEvent(address string) *GenerationEvent {
	return &GenerationEvent{Name: EventGeneratingOneTimePassword, Address: address}
}

// Override sets the pass to use. Only the first call has an effect.
func (e *GenerationEvent) Override(pass string) {
	if e.modified {
		return
	}
	e.pass = pass
	e.modified = true
}

// Modified reports whether a hook supplied a pass.
func (e *GenerationEvent) Modified() bool {
	return e.modified
}

// Pass returns the overriding pass, empty when unmodified.
func (e *GenerationEvent) Pass() string {
	return e.pass
}
