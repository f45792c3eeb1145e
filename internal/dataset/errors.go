package dataset

import (
	"errors"
	"fmt"
)

// ErrUnsupported indicates a file extension no loader accepts.
var ErrUnsupported = errors.New("unsupported tabular format")

// InputFormatError reports an upload that cannot be read as a table: an
// unsupported extension or unreadable/corrupt content. It is terminal; the
// same input will fail the same way again.
type InputFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InputFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input format: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("input format: %s: %s", e.Path, e.Reason)
}

func (e *InputFormatError) Unwrap() error { return e.Err }

// IsInputFormat reports whether err is or wraps an InputFormatError.
func IsInputFormat(err error) bool {
	var ife *InputFormatError
	return errors.As(err, &ife)
}
