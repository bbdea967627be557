package repository

import (
	"context"
	"regexp"
	"testing"

	"nyx/internal/models"
	"nyx/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_RegisterAndResolve(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	accounts := NewAccountRepository(db)
	profiles := NewProfileRepository(db)
	ctx := context.Background()

	o := &models.OwnerProfile{Name: "Nova", Visibility: models.VisibilityPrivate}
	require.NoError(t, accounts.RegisterOwner(ctx, o))
	v := &models.ViewerProfile{Name: "Sam"}
	require.NoError(t, accounts.RegisterViewer(ctx, v))
	require.NotEmpty(t, o.ID)

	roles, err := accounts.RolesBatch(ctx, []string{o.ID, v.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Role{o.ID: models.RoleOwner, v.ID: models.RoleViewer}, roles)

	role, err := accounts.Role(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, role)

	_, err = accounts.Role(ctx, "ghost")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	owners, err := profiles.OwnersByIDs(ctx, []string{o.ID, "ghost"})
	require.NoError(t, err)
	require.Contains(t, owners, o.ID)
	assert.False(t, owners[o.ID].IsPublic())

	viewers, err := profiles.ViewersByIDs(ctx, []string{v.ID})
	require.NoError(t, err)
	assert.Equal(t, "Sam", viewers[v.ID].Name)
}

func TestAccountRepository_RegisterRollsBackOnProfileFailure(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	accounts := NewAccountRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.RegisterOwner(ctx, &models.OwnerProfile{ID: "o1", Name: "First"}))

	// Same profile id with a fresh account id: the account insert succeeds,
	// the profile insert conflicts, nothing is kept.
	require.NoError(t, db.Delete(&models.Account{}, "id = ?", "o1").Error)
	err := accounts.RegisterOwner(ctx, &models.OwnerProfile{ID: "o1", Name: "Second"})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", "o1").Count(&count).Error)
	assert.Zero(t, count)
}

func TestProfileRepository_Visibility(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	accounts := NewAccountRepository(db)
	profiles := NewProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.RegisterOwner(ctx, &models.OwnerProfile{ID: "o1", Name: "A"}))
	require.NoError(t, accounts.RegisterOwner(ctx, &models.OwnerProfile{ID: "o2", Name: "B", Visibility: models.VisibilityPrivate}))

	ids, err := profiles.PublicOwnerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, ids)

	require.NoError(t, profiles.SetOwnerVisibility(ctx, "o2", models.VisibilityPublic))
	ids, err = profiles.PublicOwnerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2"}, ids)

	err = profiles.SetOwnerVisibility(ctx, "ghost", models.VisibilityPublic)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	err = profiles.SetOwnerVisibility(ctx, "o1", models.Visibility("friends"))
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = profiles.GetOwner(ctx, "ghost")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestAccountRepository_RolesBatchSingleQuery(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "accounts" WHERE id IN ($1,$2)`)).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow("a", "owner"))

	roles, err := repo.RolesBatch(context.Background(), []string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Role{"a": models.RoleOwner}, roles)
}
