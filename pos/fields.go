package pos

import "strings"

// FieldError is a validation failure attached to one input field.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// FieldErrors collects every field that failed validation, in field order.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether the named field failed.
func (fe FieldErrors) Has(field string) bool {
	for _, f := range fe {
		if f.Field == field {
			return true
		}
	}
	return false
}

// CommandError folds the field list into a single invalid argument rejection.
// Returns nil when there are no field errors.
func (fe FieldErrors) CommandError() *CommandError {
	if len(fe) == 0 {
		return nil
	}
	return NewInvalidArgument(fe.Error())
}
