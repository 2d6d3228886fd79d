package services

import (
	"context"
	"testing"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanService_RecordAndMostRecent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.scanSvc.MostRecent(ctx)
	assert.ErrorIs(t, err, model.ErrNoScans)

	_, err = env.scanSvc.Record(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidUID)

	_, err = env.scanSvc.Record(ctx, "AAAA0001")
	require.NoError(t, err)
	_, err = env.scanSvc.Record(ctx, "BBBB0002")
	require.NoError(t, err)

	latest, err := env.scanSvc.MostRecent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BBBB0002", latest.UID)
}

func TestScanService_Last(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := helpers.CreateTestUser(t, env.db, "Bat", helpers.Ptr("04A1B2C3"))

	_, err := env.scanSvc.Record(ctx, "FREE0000")
	require.NoError(t, err)
	last, err := env.scanSvc.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FREE0000", last.Scan.UID)
	assert.Nil(t, last.User)

	_, err = env.scanSvc.Record(ctx, "04A1B2C3")
	require.NoError(t, err)
	last, err = env.scanSvc.Last(ctx)
	require.NoError(t, err)
	require.NotNil(t, last.User)
	assert.Equal(t, user.ID, last.User.ID)
}

func TestScanService_HandleGatewayScan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := helpers.CreateTestUser(t, env.db, "Bat", helpers.Ptr("04A1B2C3"))

	t.Run("linked without amount", func(t *testing.T) {
		res, err := env.scanSvc.HandleGatewayScan(ctx, " 04a1b2c3 ", GatewayAmount{})
		require.NoError(t, err)
		assert.Equal(t, ScanStatusOK, res.Status)
		assert.Equal(t, "04A1B2C3", res.UID)
		assert.True(t, res.Linked)
		assert.Nil(t, res.Amount)
		assert.Empty(t, res.Note)
	})

	t.Run("linked with amount", func(t *testing.T) {
		res, err := env.scanSvc.HandleGatewayScan(ctx, "04A1B2C3", AmountOf(1000.0))
		require.NoError(t, err)
		require.NotNil(t, res.Amount)
		assert.Equal(t, 1000.0, *res.Amount)
		assert.Equal(t, NoteApplied, res.Note)

		total, err := env.ledger.Total(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, total)
	})

	t.Run("linked with non-positive amount", func(t *testing.T) {
		res, err := env.scanSvc.HandleGatewayScan(ctx, "04A1B2C3", AmountOf(-3.0))
		require.NoError(t, err)
		assert.Nil(t, res.Amount)
		assert.Equal(t, NoteInvalid, res.Note)

		total, err := env.ledger.Total(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, total)
	})

	t.Run("linked with unreadable amount", func(t *testing.T) {
		res, err := env.scanSvc.HandleGatewayScan(ctx, "04A1B2C3", GatewayAmount{Sent: true})
		require.NoError(t, err)
		assert.True(t, res.Linked)
		assert.Nil(t, res.Amount)
		assert.Equal(t, NoteInvalid, res.Note)

		total, err := env.ledger.Total(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, total)
	})

	t.Run("unlinked with amount", func(t *testing.T) {
		res, err := env.scanSvc.HandleGatewayScan(ctx, "NEWTAG01", AmountOf(50.0))
		require.NoError(t, err)
		assert.False(t, res.Linked)
		assert.Equal(t, NoteUnlinked, res.Note)
	})

	t.Run("blank uid", func(t *testing.T) {
		_, err := env.scanSvc.HandleGatewayScan(ctx, "  ", GatewayAmount{})
		assert.ErrorIs(t, err, model.ErrInvalidUID)
	})

	scans, err := env.scanSvc.Recent(ctx, "", 100)
	require.NoError(t, err)
	assert.Len(t, scans, 5, "every accepted scan is recorded, linked or not")
}
