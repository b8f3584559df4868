package validator

import (
	"errors"
	"testing"

	"adops/internal/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permissionRequest struct {
	PermissionType string `json:"permissionType" validate:"required,permission_type"`
	AccessLevel    string `json:"accessLevel" validate:"required,access_level"`
}

type memberRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	UserType string   `json:"userType" validate:"required,user_type"`
	RoleType string   `json:"roleType" validate:"omitempty,role_type"`
	Statuses []string `json:"statuses" validate:"omitempty,dive,node_status"`
}

func TestValidator_CustomTags(t *testing.T) {
	v, err := NewValidator(access.DefaultLattice())
	require.NoError(t, err)

	tests := []struct {
		name   string
		input  interface{}
		fields []string
	}{
		{"valid permission", &permissionRequest{"WALLET", "MANAGE_WALLET"}, nil},
		{"unknown type", &permissionRequest{"TELEPORT", "FULL_ACCESS"}, []string{"permissionType"}},
		{"unknown level", &permissionRequest{"WALLET", "GOD_MODE"}, []string{"accessLevel"}},
		{"valid member", &memberRequest{Email: "a@b.co", UserType: "PUBLISHER", RoleType: "MANAGER", Statuses: []string{"active", "archived"}}, nil},
		{"bad member", &memberRequest{Email: "nope", UserType: "AGENCY", RoleType: "OWNER", Statuses: []string{"gone"}},
			[]string{"email", "userType", "roleType", "statuses[0]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var ve ValidationErrors
			require.True(t, errors.As(err, &ve))
			msgs := ve.Messages()
			for _, f := range tt.fields {
				assert.Contains(t, msgs, f)
			}
			assert.Len(t, msgs, len(tt.fields))
		})
	}
}
