package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("admin@school.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "active", "created_at"}).
			AddRow(1, "admin@school.test", "$2a$10$hash", "School Admin", true, time.Now()))

	user, err := repo.FindByEmail(context.Background(), "admin@school.test")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.True(t, user.Active)
}

func TestUserFindByEmailMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@school.test").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@school.test")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
