package services

import (
	"context"
	"sync"
	"testing"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := fixtures.RegisterBat
	req.UID = " 04a1b2c3 "
	req.Nickname = "  "
	req.Gender = "robot"

	user, err := env.userSvc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, user.UID)
	assert.Equal(t, "04A1B2C3", *user.UID)
	assert.Nil(t, user.Nickname, "blank optional fields are stored as null")
	assert.Equal(t, model.GenderOther, user.Gender, "unknown gender falls back to other")
	require.NotNil(t, user.Profession)
	assert.Equal(t, "Engineer", *user.Profession)
}

func TestUserService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.userSvc.Register(ctx, fixtures.NewRegisterRequest("", "Bat"))
	assert.ErrorIs(t, err, model.ErrInvalidUID)

	_, err = env.userSvc.Register(ctx, fixtures.NewRegisterRequest(fixtures.TagBat, "   "))
	assert.ErrorIs(t, err, model.ErrNameRequired)

	users, err := env.userSvc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserService_Register_StrictConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)

	_, err = env.userSvc.Register(ctx, fixtures.NewRegisterRequest(fixtures.TagBat, "Intruder"))
	assert.ErrorIs(t, err, model.ErrUIDConflict)

	holder, err := env.registry.Resolve(ctx, fixtures.TagBat)
	require.NoError(t, err)
	assert.Equal(t, first.ID, holder.ID, "the existing binding is untouched")

	users, err := env.userSvc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_QuickRegister_GeneratesUID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.userSvc.QuickRegister(ctx, model.RegisterRequest{Name: "Walk-in"})
	require.NoError(t, err)
	require.NotNil(t, user.UID)
	assert.True(t, model.IsGeneratedUID(*user.UID))

	resolved, err := env.registry.Resolve(ctx, *user.UID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestUserService_CheckRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)

	status, err := env.userSvc.CheckRegistration(ctx, "04a1b2c3")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, user.ID, status.UserID)
	assert.Equal(t, fixtures.TagBat, status.UID)

	status, err = env.userSvc.CheckRegistration(ctx, fixtures.TagFree)
	require.NoError(t, err)
	assert.False(t, status.Exists)

	_, err = env.userSvc.CheckRegistration(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidUID)
}

func TestUserService_Profile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)

	profile, err := env.userSvc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ace", profile.Label)
	assert.Zero(t, profile.Total)

	_, err = env.ledger.AddContribution(ctx, user.ID, 75, SourceAdmin)
	require.NoError(t, err)
	profile, err = env.userSvc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(75), profile.Total)

	_, err = env.userSvc.Profile(ctx, 999)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = env.userSvc.Profile(ctx, 0)
	assert.ErrorIs(t, err, model.ErrInvalidUserID)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)

	t.Run("name is required", func(t *testing.T) {
		_, err := env.userSvc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{})
		assert.ErrorIs(t, err, model.ErrNameRequired)

		_, err = env.userSvc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{Name: model.Value("  ")})
		assert.ErrorIs(t, err, model.ErrNameRequired)
	})

	t.Run("omitted keeps, null and blank clear, value sets", func(t *testing.T) {
		updated, err := env.userSvc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{
			Name:       model.Value(" Bataa "),
			Nickname:   model.Null[string](),
			Phone:      model.Value(""),
			Bio:        model.Value("Loves NFC"),
			Profession: model.Field[string]{},
		})
		require.NoError(t, err)

		assert.Equal(t, "Bataa", updated.Name)
		assert.Nil(t, updated.Nickname)
		assert.Nil(t, updated.Phone)
		require.NotNil(t, updated.Bio)
		assert.Equal(t, "Loves NFC", *updated.Bio)
		require.NotNil(t, updated.Profession)
		assert.Equal(t, "Engineer", *updated.Profession)
		require.NotNil(t, updated.Industry)
		assert.Equal(t, "Mining", *updated.Industry)
	})

	t.Run("invalid gender keeps the stored one", func(t *testing.T) {
		updated, err := env.userSvc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{
			Name:   model.Value("Bataa"),
			Gender: model.Value("unknown"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.GenderMale, updated.Gender)

		updated, err = env.userSvc.UpdateProfile(ctx, user.ID, model.ProfileUpdate{
			Name:   model.Value("Bataa"),
			Gender: model.Value("FEMALE"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.GenderFemale, updated.Gender)
	})

	t.Run("uid is unchanged", func(t *testing.T) {
		got, err := env.userSvc.Get(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got.UID)
		assert.Equal(t, fixtures.TagBat, *got.UID)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.userSvc.UpdateProfile(ctx, 999, model.ProfileUpdate{Name: model.Value("x")})
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})
}

func TestUserService_UpdateProfile_ConcurrentPartialUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)

	updates := []model.ProfileUpdate{
		{Name: model.Value("Bataa"), Bio: model.Value("Loves NFC")},
		{Name: model.Value("Bataa"), Phone: model.Value("99112233")},
		{Name: model.Value("Bataa"), Nickname: model.Value("Ace")},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(updates))
	for _, upd := range updates {
		wg.Add(1)
		go func(upd model.ProfileUpdate) {
			defer wg.Done()
			_, err := env.userSvc.UpdateProfile(ctx, user.ID, upd)
			errs <- err
		}(upd)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := env.userSvc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bio)
	assert.Equal(t, "Loves NFC", *got.Bio)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "99112233", *got.Phone)
	require.NotNil(t, got.Nickname)
	assert.Equal(t, "Ace", *got.Nickname)
}

func TestUserService_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)
	other, err := env.userSvc.Register(ctx, fixtures.RegisterSaraa)
	require.NoError(t, err)

	for _, amt := range []float64{10, 20, 30} {
		_, err := env.ledger.AddContribution(ctx, user.ID, amt, SourceAdmin)
		require.NoError(t, err)
	}
	_, err = env.ledger.AddContribution(ctx, other.ID, 5, SourceAdmin)
	require.NoError(t, err)
	_, err = env.scanSvc.Record(ctx, fixtures.TagBat)
	require.NoError(t, err)

	require.NoError(t, env.userSvc.Delete(ctx, user.ID))

	_, err = env.userSvc.Get(ctx, user.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	history, err := env.txns.ListByUser(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	total, err := env.totals.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, total)

	bound, err := env.registry.IsBound(ctx, fixtures.TagBat)
	require.NoError(t, err)
	assert.False(t, bound, "the uid is free again")

	scans, err := env.scanSvc.Recent(ctx, fixtures.TagBat, 0)
	require.NoError(t, err)
	assert.Len(t, scans, 1, "scans are kept")

	otherTotal, err := env.ledger.Total(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(5), otherTotal)

	assert.ErrorIs(t, env.userSvc.Delete(ctx, user.ID), model.ErrUserNotFound)
}

func TestUserService_ReassignUID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bat, err := env.userSvc.Register(ctx, fixtures.RegisterBat)
	require.NoError(t, err)
	walkIn, err := env.userSvc.QuickRegister(ctx, model.RegisterRequest{Name: "Walk-in"})
	require.NoError(t, err)

	previous, err := env.userSvc.ReassignUID(ctx, walkIn.ID, fixtures.TagBat)
	require.NoError(t, err)
	assert.Equal(t, bat.ID, previous)

	holder, err := env.registry.Resolve(ctx, fixtures.TagBat)
	require.NoError(t, err)
	assert.Equal(t, walkIn.ID, holder.ID)
}
