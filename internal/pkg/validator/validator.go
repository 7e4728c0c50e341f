package validator

// Validator validates structs annotated with `validate` tags.
type Validator interface {
	// Validate returns nil when data is valid. On failure the error is a
	// V10ValidationError keyed by snake_case field names.
	Validate(data any) error
}
