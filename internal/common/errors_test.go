package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAclViolationError_IsAndMessage(t *testing.T) {
	err := fmt.Errorf("create folder: %w", &AclViolationError{
		Offending: []string{"30"},
		Allowed:   []string{"20", "10"},
	})

	assert.True(t, errors.Is(err, ErrAclViolation))
	assert.False(t, errors.Is(err, ErrDuplicateName))
	assert.Contains(t, err.Error(), "brands [30] are not allowed by parent (allowed: [10, 20])")

	var violation *AclViolationError
	assert.True(t, errors.As(err, &violation))
	assert.Equal(t, []string{"30"}, violation.Offending)
}

func TestAclViolationError_AllBrandsUnderRestrictedParent(t *testing.T) {
	err := &AclViolationError{Allowed: []string{"10"}}
	assert.Contains(t, err.Error(), "cannot allow all brands")
}
