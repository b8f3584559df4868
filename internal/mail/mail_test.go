package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"adops/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_RenderInvitation(t *testing.T) {
	m, err := NewMailer(config.MailConfig{From: "no-reply@adops.test"})
	require.NoError(t, err)

	msg, err := m.Render("jane@example.com", TemplateInvitation, map[string]interface{}{
		"FirstName":         "Jane",
		"InvitedBy":         "Bob",
		"AccountName":       "Acme Media",
		"RoleType":          "MEMBER",
		"TemporaryPassword": "s3cret",
		"LoginURL":          "http://localhost:8080/login",
	})
	require.NoError(t, err)

	assert.Equal(t, "You have been invited to Acme Media", msg.Subject)
	assert.Contains(t, msg.Body, "Bob added you to Acme Media as MEMBER.")
	assert.Contains(t, msg.Body, "s3cret")
	assert.Equal(t, "no-reply@adops.test", msg.From)
}

func TestMailer_RenderBrandAccess(t *testing.T) {
	m, err := NewMailer(config.MailConfig{})
	require.NoError(t, err)

	msg, err := m.Render("a@b.c", TemplateBrandAccessChanged, map[string]interface{}{
		"AccountName":    "Acme",
		"AllowAllBrands": false,
		"BrandIDs":       []string{"1", "2"},
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "You can now see 2 brand(s) in Acme.")
}

func TestMailer_UnknownTemplate(t *testing.T) {
	m, err := NewMailer(config.MailConfig{})
	require.NoError(t, err)

	err = m.Send(context.Background(), "a@b.c", "welcome_back", nil)
	assert.Error(t, err)
}

func TestMailer_SendWithoutHostOnlyLogs(t *testing.T) {
	m, err := NewMailer(config.MailConfig{})
	require.NoError(t, err)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("smtp must not be used without a host")
		return nil
	}

	err = m.Send(context.Background(), "a@b.c", TemplatePermissionsChanged, map[string]interface{}{
		"AccountName": "Acme", "PermissionType": "WALLET", "AccessLevel": "VIEW_ACCESS",
	})
	assert.NoError(t, err)
}

func TestMailer_SendOverSMTP(t *testing.T) {
	m, err := NewMailer(config.MailConfig{Host: "smtp.example.com", Port: 2525, From: "ops@adops.test"})
	require.NoError(t, err)

	var gotAddr string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotMsg = addr, msg
		assert.Nil(t, a)
		assert.Equal(t, []string{"a@b.c"}, to)
		return nil
	}

	err = m.Send(context.Background(), "a@b.c", TemplatePermissionsChanged, map[string]interface{}{
		"AccountName": "Acme", "PermissionType": "WALLET", "AccessLevel": "MANAGE_WALLET",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.True(t, strings.HasPrefix(string(gotMsg), "From: ops@adops.test\r\n"))
	assert.Contains(t, string(gotMsg), "Subject: Your access to Acme changed\r\n")
	assert.Contains(t, string(gotMsg), "WALLET access in Acme is now MANAGE_WALLET.")

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	err = m.Send(context.Background(), "a@b.c", TemplatePermissionsChanged, map[string]interface{}{
		"AccountName": "Acme", "PermissionType": "WALLET", "AccessLevel": "MANAGE_WALLET",
	})
	assert.Error(t, err)
}
