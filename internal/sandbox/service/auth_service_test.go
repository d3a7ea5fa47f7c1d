package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvishnu/school-desk/internal/sandbox/repository"
	appErrors "github.com/alvishnu/school-desk/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*repository.UserRow
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*repository.UserRow, error) {
	if user, ok := m.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func testAuthService(t *testing.T, active bool) *AuthService {
	t.Helper()
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	repo := &mockUserRepo{users: map[string]*repository.UserRow{
		"admin@school.test": {ID: 1, Email: "admin@school.test", PasswordHash: hash, Active: active},
	}}
	return NewAuthService(repo, nil, AuthConfig{Secret: "test-secret", Expiration: time.Minute})
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := testAuthService(t, true)

	token, err := svc.Login(context.Background(), "admin@school.test", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NoError(t, svc.Verify(token))
}

func TestLoginWrongPassword(t *testing.T) {
	svc := testAuthService(t, true)

	_, err := svc.Login(context.Background(), "admin@school.test", "wrong")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))
}

func TestLoginUnknownAccount(t *testing.T) {
	svc := testAuthService(t, true)

	_, err := svc.Login(context.Background(), "nobody@school.test", "secret")
	// Unknown accounts read the same as bad passwords.
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLoginInactiveAccount(t *testing.T) {
	svc := testAuthService(t, false)

	_, err := svc.Login(context.Background(), "admin@school.test", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inactive")
}

func TestLoginEmptyCredentials(t *testing.T) {
	svc := testAuthService(t, true)

	_, err := svc.Login(context.Background(), "", "")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := testAuthService(t, true)
	assert.Error(t, svc.Verify("not-a-token"))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer := testAuthService(t, true)
	token, err := issuer.Login(context.Background(), "admin@school.test", "secret")
	require.NoError(t, err)

	verifier := NewAuthService(&mockUserRepo{}, nil, AuthConfig{Secret: "other-secret"})
	assert.Error(t, verifier.Verify(token))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := testAuthService(t, true)

	claims := jwt.MapClaims{"sub": int64(1), "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	assert.Error(t, svc.Verify(token))
}
