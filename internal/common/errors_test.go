package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	errs := []error{
		ErrNotFound,
		ErrExists,
		ErrNotDir,
		ErrIsDir,
		ErrNoParent,
		ErrInvalidName,
		ErrInvalidArgument,
		ErrNotSupported,
		ErrNoSpace,
		ErrBadImage,
		ErrIO,
	}

	seen := make(map[string]bool)
	for _, err := range errs {
		assert.NotEmpty(t, err.Error())
		assert.False(t, seen[err.Error()], "duplicate message: %s", err.Error())
		seen[err.Error()] = true
	}
}
