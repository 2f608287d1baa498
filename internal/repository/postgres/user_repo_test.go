package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/repository/postgres"
	"github.com/val/markdown-notes/internal/testutil"
	"gorm.io/gorm"
)

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	first := &domain.User{Username: "alice", Email: "a@b.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.User{Username: "mallory", Email: "a@b.com", PasswordHash: "hash"}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	created, _ := testutil.NewUserBuilder().WithEmail("lookup@example.com").Build(t, testDB.DB)

	user, err := repo.GetByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByEmail(ctx, "absent@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_ConsumeVerificationCode(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code consumed exactly once", func(t *testing.T) {
		testDB := testutil.NewTestDB(t)
		repo := postgres.NewUserRepository(testDB.DB)

		user, _ := testutil.NewUserBuilder().
			WithEmail("verify@example.com").
			Unverified().
			WithVerificationCode("123456", time.Now().Add(time.Hour)).
			Build(t, testDB.DB)

		ok, err := repo.ConsumeVerificationCode(ctx, user.Email, "123456")
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsVerified)
		assert.Nil(t, stored.VerificationCode)
		assert.Nil(t, stored.CodeExpires)

		// Second submission of the same code must fail.
		ok, err = repo.ConsumeVerificationCode(ctx, user.Email, "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		testDB := testutil.NewTestDB(t)
		repo := postgres.NewUserRepository(testDB.DB)

		user, _ := testutil.NewUserBuilder().
			WithEmail("wrong@example.com").
			Unverified().
			WithVerificationCode("123456", time.Now().Add(time.Hour)).
			Build(t, testDB.DB)

		ok, err := repo.ConsumeVerificationCode(ctx, user.Email, "654321")
		require.NoError(t, err)
		assert.False(t, ok)

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsVerified)
	})

	t.Run("expired code rejected even when digits match", func(t *testing.T) {
		testDB := testutil.NewTestDB(t)
		repo := postgres.NewUserRepository(testDB.DB)

		user, _ := testutil.NewUserBuilder().
			WithEmail("expired@example.com").
			Unverified().
			WithVerificationCode("123456", time.Now().Add(-time.Minute)).
			Build(t, testDB.DB)

		ok, err := repo.ConsumeVerificationCode(ctx, user.Email, "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("already verified user rejected", func(t *testing.T) {
		testDB := testutil.NewTestDB(t)
		repo := postgres.NewUserRepository(testDB.DB)

		user, _ := testutil.NewUserBuilder().
			WithEmail("done@example.com").
			WithVerificationCode("123456", time.Now().Add(time.Hour)).
			Build(t, testDB.DB)

		ok, err := repo.ConsumeVerificationCode(ctx, user.Email, "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepository_UpdateVerificationCode(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		Unverified().
		WithVerificationCode("111111", time.Now().Add(time.Hour)).
		Build(t, testDB.DB)

	expires := time.Now().Add(time.Hour)
	rows, err := repo.UpdateVerificationCode(ctx, user.ID, "222222", expires)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	assert.Equal(t, "222222", *stored.VerificationCode)

	// The replaced code is no longer usable.
	ok, err := repo.ConsumeVerificationCode(ctx, user.Email, "111111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_IncrementTokenVersion(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	rows, err := repo.IncrementTokenVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.TokenVersion+1, stored.TokenVersion)

	rows, err = repo.IncrementTokenVersion(ctx, 99999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithUsername("before").Build(t, testDB.DB)

	rows, err := repo.UpdateUsername(ctx, user.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.UpdatePasswordHash(ctx, user.ID, "new-hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Username)
	assert.Equal(t, "new-hash", stored.PasswordHash)

	rows, err = repo.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = repo.GetByID(ctx, user.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
