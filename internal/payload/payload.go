// Package payload gates framed lines before forwarding: only well-formed
// JSON values are eligible. Valid lines are forwarded verbatim, never
// re-serialized, so the exact byte layout (numeric formatting included)
// reaches every consumer unchanged.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalid indicates a line that is not a well-formed JSON value.
var ErrInvalid = errors.New("not a valid JSON payload")

// Validate reports whether line is a well-formed JSON value. A failure is
// local to the line: the caller logs and drops it, the pipeline continues.
func Validate(line string) error {
	if !json.Valid([]byte(line)) {
		return fmt.Errorf("%w: %q", ErrInvalid, line)
	}
	return nil
}
