package models

import (
	"time"

	"gorm.io/gorm"
)

// HunterRank tracks a hunter's rank within one season (denormalized for fast gate checks).
// A missing row means the hunter is still at RankE.
type HunterRank struct {
	SeasonID uint64 `gorm:"primaryKey;autoIncrement:false" json:"season_id"`
	Hunter   string `gorm:"primaryKey;type:varchar(42)" json:"hunter"`
	Rank     Rank   `gorm:"not null" json:"rank"`

	LastRankUpOrdinal uint64     `json:"last_rank_up_ordinal"`
	LastRankUpAt      *time.Time `json:"last_rank_up_at,omitempty"`

	Timestamps
}

// MonsterBurn is one line of the consumed-monster ledger written by a rank-up.
type MonsterBurn struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SeasonID   uint64 `gorm:"index:idx_burn_hunter;not null" json:"season_id"`
	Hunter     string `gorm:"index:idx_burn_hunter;type:varchar(42);not null" json:"hunter"`
	MonsterID  uint64 `gorm:"not null" json:"monster_id"`
	Amount     uint64 `gorm:"not null" json:"amount"`
	TargetRank Rank   `gorm:"not null" json:"target_rank"`
	IsShadow   bool   `gorm:"not null" json:"is_shadow"`
	Ordinal    uint64 `gorm:"not null" json:"ordinal"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
