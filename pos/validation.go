package pos

import "github.com/shopspring/decimal"

// RequireState checks that a flag describing the current state holds.
func RequireState(ok bool, errMsg string) *CommandError {
	if !ok {
		return NewFailedPrecondition(errMsg)
	}
	return nil
}

// RequirePositive checks that a value is greater than zero.
func RequirePositive[T ~int | ~int32 | ~int64](value T, errMsg string) *CommandError {
	if value <= 0 {
		return NewInvalidArgument(errMsg)
	}
	return nil
}

// RequirePositiveAmount checks that a monetary amount is greater than zero.
func RequirePositiveAmount(value decimal.Decimal, errMsg string) *CommandError {
	if !value.IsPositive() {
		return NewInvalidArgument(errMsg)
	}
	return nil
}

// RequireNotEmpty checks that a slice has at least one element.
func RequireNotEmpty[T any](items []T, errMsg string) *CommandError {
	if len(items) == 0 {
		return NewFailedPrecondition(errMsg)
	}
	return nil
}
