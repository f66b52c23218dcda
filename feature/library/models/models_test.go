package models_test

import (
	"testing"

	"game-vault/core/database"
	"game-vault/feature/library/models"

	"github.com/stretchr/testify/assert"
)

func TestMigrate(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)

	err = models.Migrate(db)
	assert.NoError(t, err)

	for _, table := range []string{"platforms", "statuses", "play_withs", "played_statuses",
		"games", "game_play_with", "game_views", "game_export_caches", "view_export_caches"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestParseSpecialStatusType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want models.SpecialStatusType
	}{
		{"Canonical", "NotFulfilled", models.SpecialNotFulfilled},
		{"LowerSnake", "not_fulfilled", models.SpecialNotFulfilled},
		{"Spaced", "Not Fulfilled", models.SpecialNotFulfilled},
		{"Fulfilled", "fulfilled", models.SpecialFulfilled},
		{"Empty", "", models.SpecialNone},
		{"Garbage", "whatever", models.SpecialNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.ParseSpecialStatusType(tt.in))
		})
	}
}

func TestComputeAverageScore(t *testing.T) {
	g := models.Game{RatingGameplay: 8, RatingGraphics: 6, RatingStory: 0, RatingSound: 10}
	g.ComputeAverageScore()
	assert.InDelta(t, 8.0, g.AverageScore, 0.001)

	empty := models.Game{}
	empty.AverageScore = 99 // imported junk must not survive the recompute
	empty.ComputeAverageScore()
	assert.Zero(t, empty.AverageScore)
}
