package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SpecialStatusType tags a status with a role beyond its display name.
// At most one status per (owner, role) may carry the default flag.
type SpecialStatusType string

const (
	// SpecialNone marks an ordinary status with no special role.
	SpecialNone SpecialStatusType = ""
	// SpecialNotFulfilled is the role of the canonical "not played yet" status.
	SpecialNotFulfilled SpecialStatusType = "NotFulfilled"
	// SpecialFulfilled is the role of the canonical "completed" status.
	SpecialFulfilled SpecialStatusType = "Fulfilled"
)

// ParseSpecialStatusType decodes free text into a SpecialStatusType.
// Unknown text maps to SpecialNone so imports never fail on it.
func ParseSpecialStatusType(s string) SpecialStatusType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "notfulfilled", "not_fulfilled", "not fulfilled":
		return SpecialNotFulfilled
	case "fulfilled":
		return SpecialFulfilled
	default:
		return SpecialNone
	}
}

// Platform is a selectable platform classification value (e.g. "Steam", "PS5").
type Platform struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_platforms_owner_name" json:"user_id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_platforms_owner_name" json:"name"`
	Color     string    `gorm:"size:20" json:"color"`
	Active    bool      `json:"active"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status is a selectable progress value ("Playing", "Finished"), optionally
// carrying a special role with a per-role default flag.
type Status struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"not null;uniqueIndex:idx_statuses_owner_name" json:"user_id"`
	Name        string            `gorm:"size:100;not null;uniqueIndex:idx_statuses_owner_name" json:"name"`
	Color       string            `gorm:"size:20" json:"color"`
	Active      bool              `json:"active"`
	SortOrder   int               `gorm:"not null" json:"sort_order"`
	SpecialType SpecialStatusType `gorm:"size:30" json:"special_type"`
	IsDefault   bool              `json:"is_default"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PlayWith is a selectable company value ("Solo", "Friends").
type PlayWith struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_play_withs_owner_name" json:"user_id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_play_withs_owner_name" json:"name"`
	Color     string    `gorm:"size:20" json:"color"`
	Active    bool      `json:"active"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayedStatus is a selectable completion value ("Beaten", "Dropped").
type PlayedStatus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_played_statuses_owner_name" json:"user_id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_played_statuses_owner_name" json:"name"`
	Color     string    `gorm:"size:20" json:"color"`
	Active    bool      `json:"active"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Game is a catalog entry under synchronization. References to catalog values
// are plain id columns; the play-with set lives in the game_play_with join table.
type Game struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"not null;uniqueIndex:idx_games_owner_name" json:"user_id"`
	Name           string `gorm:"size:200;not null;uniqueIndex:idx_games_owner_name" json:"name"`
	StatusID       uint   `gorm:"not null" json:"status_id"`
	PlatformID     *uint  `json:"platform_id"`
	PlayedStatusID *uint  `json:"played_status_id"`

	RatingGameplay int     `json:"rating_gameplay"`
	RatingGraphics int     `json:"rating_graphics"`
	RatingStory    int     `json:"rating_story"`
	RatingSound    int     `json:"rating_sound"`
	AverageScore   float64 `json:"average_score"`

	ReleaseYear int    `json:"release_year"`
	Notes       string `gorm:"type:text" json:"notes"`
	Comment     string `gorm:"type:text" json:"comment"`
	LogoURL     string `gorm:"size:500" json:"logo_url"`
	CoverURL    string `gorm:"size:500" json:"cover_url"`

	// ModifiedSinceExport is set on every persisted mutation and cleared only
	// after a successful full export of this game.
	ModifiedSinceExport bool `json:"modified_since_export"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeAverageScore recomputes the derived score from the four rating fields.
// Ratings left at zero do not participate. The stored value is never trusted
// from imports; this is the single source of truth for the derived field.
func (g *Game) ComputeAverageScore() {
	sum, n := 0, 0
	for _, r := range []int{g.RatingGameplay, g.RatingGraphics, g.RatingStory, g.RatingSound} {
		if r > 0 {
			sum += r
			n++
		}
	}
	if n == 0 {
		g.AverageScore = 0
		return
	}
	g.AverageScore = float64(sum) / float64(n)
}

// GamePlayWith is a row in the game_play_with join table.
type GamePlayWith struct {
	GameID     uint `gorm:"primaryKey" json:"game_id"`
	PlayWithID uint `gorm:"primaryKey" json:"play_with_id"`
}

// TableName returns the table name for GORM.
func (GamePlayWith) TableName() string {
	return "game_play_with"
}

// GameView is a saved filter/sort configuration. The Configuration blob is
// opaque to the sync engine; it is copied verbatim on export and import.
type GameView struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_game_views_owner_name" json:"user_id"`
	Name          string         `gorm:"size:100;not null;uniqueIndex:idx_game_views_owner_name" json:"name"`
	Description   string         `gorm:"size:500" json:"description"`
	Configuration datatypes.JSON `json:"configuration"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// GameExportCache is the last known export outcome for one game. It is created
// lazily on first export and is never the source of truth: losing a row only
// forces a re-export.
type GameExportCache struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GameID       uint      `gorm:"uniqueIndex;not null" json:"game_id"`
	ExportedAt   time.Time `json:"exported_at"`
	LogoFetched  bool      `json:"logo_fetched"`
	CoverFetched bool      `json:"cover_fetched"`
	LogoURL      string    `gorm:"size:500" json:"logo_url"`
	CoverURL     string    `gorm:"size:500" json:"cover_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (GameExportCache) TableName() string {
	return "game_export_caches"
}

// ViewExportCache is the last known export outcome for one saved view.
type ViewExportCache struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ViewID     uint      `gorm:"uniqueIndex;not null" json:"view_id"`
	ExportedAt time.Time `json:"exported_at"`
	// ConfigHash is the SHA-256 of the view's configuration blob at export time.
	ConfigHash string    `gorm:"size:64" json:"config_hash"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (ViewExportCache) TableName() string {
	return "view_export_caches"
}

// Migrate creates or updates the schema for every sync entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Platform{},
		&Status{},
		&PlayWith{},
		&PlayedStatus{},
		&Game{},
		&GamePlayWith{},
		&GameView{},
		&GameExportCache{},
		&ViewExportCache{},
	)
}
