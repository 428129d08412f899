package payload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := []string{
		`{"x":1.0,"y":-2.0,"z":0.0}`,
		`{"nested":{"a":[1,2,3]}}`,
		`[1,2,3]`,
		`"bare string"`,
		`42`,
		`null`,
	}
	for _, line := range valid {
		t.Run(line, func(t *testing.T) {
			assert.NoError(t, Validate(line))
		})
	}

	invalid := []string{
		"not json",
		"",
		`{"x":1.0`,
		`{x:1}`,
		"{\"x\":1}�",
	}
	for _, line := range invalid {
		t.Run(line, func(t *testing.T) {
			err := Validate(line)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}
