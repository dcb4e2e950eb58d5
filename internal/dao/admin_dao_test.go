package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
)

func newDBAdmin(t *testing.T, email string) *model.Admin {
	t.Helper()
	a := &model.Admin{
		Name:     "Ops",
		Email:    email,
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	require.NoError(t, a.SetPassword("secret-pass-1"))
	return a
}

func TestAdminDao_Create_DuplicateEmail(t *testing.T) {
	d := NewAdminDao(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, d.Create(ctx, newDBAdmin(t, "ops@veluno.in")))

	err := d.Create(ctx, newDBAdmin(t, "ops@veluno.in"))
	require.Error(t, err)
	assert.True(t, e.IsCode(err, e.ERROR_ADMIN_EXISTS),
		"duplicate email must surface as ERROR_ADMIN_EXISTS, got %v", err)

	assert.NoError(t, d.Create(ctx, newDBAdmin(t, "ops2@veluno.in")))
}
