package handler

import (
	"net/http"
	"testing"
	"time"

	"tempo-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "acme")

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		TenantID:     tenant.ID,
		Email:        "worker@acme.test",
		PasswordHash: string(hash),
		Role:         model.RoleStaff,
	}
	require.NoError(t, db.Create(user).Error)

	t.Run("success", func(t *testing.T) {
		c, rec := newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/login",
			`{"email": "worker@acme.test", "password": "correct horse"}`)
		require.NoError(t, Login(c))
		requireStatus(t, rec, http.StatusOK)

		body := decode(t, rec)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		c, rec := newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/login",
			`{"email": "worker@acme.test", "password": "nope"}`)
		require.NoError(t, Login(c))
		requireStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("user from another tenant", func(t *testing.T) {
		other := createTenant(t, db, "rival")
		c, rec := newTenantContext(t, other, http.MethodPost, "/t/rival/auth/login",
			`{"email": "worker@acme.test", "password": "correct horse"}`)
		require.NoError(t, Login(c))
		requireStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestSignup(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "acme")

	invite := &model.Invite{
		TenantID:   tenant.ID,
		Email:      "new@acme.test",
		Token:      "invite-token-1",
		Role:       model.RoleStaff,
		Location:   "Harbour",
		Department: "Front of House",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(invite).Error)

	c, rec := newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/signup",
		`{"token": "invite-token-1", "name": "New Hire", "password": "longenough"}`)
	require.NoError(t, Signup(c))
	requireStatus(t, rec, http.StatusCreated)

	var user model.User
	require.NoError(t, db.Where("tenant_id = ? AND email = ?", tenant.ID, "new@acme.test").First(&user).Error)
	assert.Equal(t, "Harbour", user.Location)
	assert.Equal(t, "Front of House", user.Department)

	var scope model.UserScope
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&scope).Error)
	assert.Equal(t, "Harbour", scope.Location)

	var accepted model.Invite
	require.NoError(t, db.First(&accepted, invite.ID).Error)
	assert.NotNil(t, accepted.AcceptedAt)

	t.Run("token cannot be redeemed twice", func(t *testing.T) {
		c, rec := newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/signup",
			`{"token": "invite-token-1", "name": "Imposter", "password": "longenough"}`)
		require.NoError(t, Signup(c))
		requireStatus(t, rec, http.StatusGone)
	})
}

func TestSignup_ExpiredInvite(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "acme")

	invite := &model.Invite{
		TenantID:  tenant.ID,
		Email:     "late@acme.test",
		Token:     "stale-token",
		Role:      model.RoleStaff,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(invite).Error)

	c, rec := newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/signup",
		`{"token": "stale-token", "name": "Late Hire", "password": "longenough"}`)
	require.NoError(t, Signup(c))
	requireStatus(t, rec, http.StatusGone)
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "acme")

	hash, err := bcrypt.GenerateFromPassword([]byte("old password"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{TenantID: tenant.ID, Email: "reset@acme.test", PasswordHash: string(hash)}
	require.NoError(t, db.Create(user).Error)

	// Request: identical answer for known and unknown addresses
	c, rec := newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/reset/request",
		`{"email": "reset@acme.test"}`)
	require.NoError(t, RequestPasswordReset(c))
	requireStatus(t, rec, http.StatusAccepted)

	c, rec = newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/reset/request",
		`{"email": "nobody@acme.test"}`)
	require.NoError(t, RequestPasswordReset(c))
	requireStatus(t, rec, http.StatusAccepted)

	var reset model.PasswordReset
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&reset).Error)

	// Confirm with the issued token
	c, rec = newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/reset/confirm",
		`{"token": "`+reset.Token+`", "new_password": "brand new pass"}`)
	require.NoError(t, ConfirmPasswordReset(c))
	requireStatus(t, rec, http.StatusOK)

	var updated model.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("brand new pass")))

	// Token is single use
	c, rec = newTenantContext(t, tenant, http.MethodPost, "/t/acme/auth/reset/confirm",
		`{"token": "`+reset.Token+`", "new_password": "yet another one"}`)
	require.NoError(t, ConfirmPasswordReset(c))
	requireStatus(t, rec, http.StatusGone)
}
