package tasks

import (
	"context"
	"testing"

	"adops/internal/events"
	"adops/internal/mail"
	"adops/internal/models"
	"adops/internal/utils/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queued struct {
	taskType string
	payload  interface{}
}

type fakeQueue struct {
	jobs []queued
}

func (q *fakeQueue) Enqueue(_ context.Context, taskType string, payload interface{}, _ ...asynq.Option) error {
	q.jobs = append(q.jobs, queued{taskType: taskType, payload: payload})
	return nil
}

func expectRecipient(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE .*id = \$1 AND is_deleted = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name"}).
			AddRow("u1", "jane@example.com", "Jane", "Doe"))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE .*id = \$1 AND is_deleted = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("acc1", "Acme Media"))
}

func TestNotifier_PermissionChanged(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	queue := &fakeQueue{}
	n := NewNotifier(db, queue, "https://adops.test")
	expectRecipient(mock)

	err := n.PermissionChanged(context.Background(), events.PermissionChanged{
		UserID:         "u1",
		AccountID:      "acc1",
		PermissionType: string(models.PermissionWallet),
		AccessLevel:    string(models.AccessManageWallet),
		ChangedBy:      "admin",
	})
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, TaskTypeSendEmail, queue.jobs[0].taskType)

	p := queue.jobs[0].payload.(EmailPayload)
	assert.Equal(t, "jane@example.com", p.To)
	assert.Equal(t, mail.TemplatePermissionsChanged, p.Template)
	assert.Equal(t, "Acme Media", p.Data["AccountName"])
	assert.Equal(t, string(models.AccessManageWallet), p.Data["AccessLevel"])
}

func TestNotifier_BrandAccessChanged(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	queue := &fakeQueue{}
	n := NewNotifier(db, queue, "https://adops.test")
	expectRecipient(mock)

	err := n.BrandAccessChanged(context.Background(), &models.UserAccount{
		UserID:    "u1",
		AccountID: "acc1",
		Brands:    []models.UserAccountBrand{{BrandID: "b1"}, {BrandID: "b2"}},
	})
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)

	p := queue.jobs[0].payload.(EmailPayload)
	assert.Equal(t, mail.TemplateBrandAccessChanged, p.Template)
	assert.Equal(t, false, p.Data["AllowAllBrands"])
	assert.Equal(t, []string{"b1", "b2"}, p.Data["BrandIDs"])
}

func TestNotifier_UnknownUserIsNotQueued(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	queue := &fakeQueue{}
	n := NewNotifier(db, queue, "https://adops.test")

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := n.PermissionChanged(context.Background(), events.PermissionChanged{UserID: "ghost", AccountID: "acc1"})
	assert.ErrorContains(t, err, "user ghost")
	assert.Empty(t, queue.jobs)
}

func TestNotifier_Invited(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	queue := &fakeQueue{}
	n := NewNotifier(db, queue, "https://adops.test")
	expectRecipient(mock)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name"}).AddRow("admin", "Ada", "Admin"))
	mock.ExpectQuery(`SELECT \* FROM "user_accounts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_id", "role_type"}).
			AddRow("m1", "u1", "acc1", "MANAGER"))

	err := n.Invited(context.Background(), events.Invitation{
		UserID:            "u1",
		AccountID:         "acc1",
		InvitedByID:       "admin",
		TemporaryPassword: "s3cret-temp",
	})
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)

	p := queue.jobs[0].payload.(EmailPayload)
	assert.Equal(t, mail.TemplateInvitation, p.Template)
	assert.Equal(t, "Ada Admin", p.Data["InvitedBy"])
	assert.Equal(t, "MANAGER", p.Data["RoleType"])
	assert.Equal(t, "https://adops.test/api/v1/auth/login", p.Data["LoginURL"])
}
