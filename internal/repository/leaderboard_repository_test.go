package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardRepository_Ranked(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	totals := NewTotalRepository(db)
	board := NewLeaderboardRepository(db)
	ctx := context.Background()

	a, err := users.Create(ctx, &model.User{Name: "Alpha", Gender: model.GenderOther})
	require.NoError(t, err)
	b, err := users.Create(ctx, &model.User{Name: "Bravo", Nickname: strPtr("B-man"), Profession: strPtr("Chef"), Gender: model.GenderOther})
	require.NoError(t, err)
	c, err := users.Create(ctx, &model.User{Name: "", Gender: model.GenderOther})
	require.NoError(t, err)
	d, err := users.Create(ctx, &model.User{Name: "Delta", Gender: model.GenderOther})
	require.NoError(t, err)

	_, err = totals.Increment(ctx, b.ID, 300)
	require.NoError(t, err)
	_, err = totals.Increment(ctx, d.ID, 300)
	require.NoError(t, err)
	_, err = totals.Increment(ctx, a.ID, 100)
	require.NoError(t, err)

	rows, err := board.Ranked(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4, "users without totals are listed")

	ids := []int64{rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID}
	assert.Equal(t, []int64{b.ID, d.ID, a.ID, c.ID}, ids)

	assert.Equal(t, "B-man", rows[0].Label)
	require.NotNil(t, rows[0].Profession)
	assert.Equal(t, "Chef", *rows[0].Profession)
	assert.Equal(t, "Delta", rows[1].Label)
	assert.Equal(t, "Player "+itoa(c.ID), rows[3].Label)
	assert.Zero(t, rows[3].Total)

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		assert.True(t, prev.Total > cur.Total || (prev.Total == cur.Total && prev.ID < cur.ID))
	}

	top, err := board.Ranked(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestLeaderboardRepository_Empty(t *testing.T) {
	db := setupTestDB(t)
	board := NewLeaderboardRepository(db)

	rows, err := board.Ranked(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
