package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// caller-correctable
	ErrAclViolation  = errors.New("acl violation")
	ErrDuplicateName = errors.New("duplicate name")
	ErrInvalidInput  = errors.New("invalid input")

	ErrNodeNotFound       = errors.New("node not found")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorizedAction = errors.New("unauthorized action")

	// lattice configuration defects; authorization fails closed on these
	ErrUnknownPermissionType = errors.New("unknown permission type")
	ErrUnknownAccessLevel    = errors.New("unknown access level")
)

// AclViolationError names the brands that broke the parent-subset rule.
// Offending is empty when the child asked for ALL_BRANDS under a restricted parent.
type AclViolationError struct {
	Offending []string
	Allowed   []string
}

func (e *AclViolationError) Error() string {
	allowed := sortedCopy(e.Allowed)
	if len(e.Offending) == 0 {
		return fmt.Sprintf("acl violation: parent is restricted to brands [%s], child cannot allow all brands",
			strings.Join(allowed, ", "))
	}
	return fmt.Sprintf("acl violation: brands [%s] are not allowed by parent (allowed: [%s])",
		strings.Join(sortedCopy(e.Offending), ", "), strings.Join(allowed, ", "))
}

func (e *AclViolationError) Is(target error) bool {
	return target == ErrAclViolation
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
