package market

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError reports a request value that cannot be used. Handlers
// surface it as a 400 with Error() as the message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func quoteValue(s string) string {
	return strconv.Quote(s)
}
