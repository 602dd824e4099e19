package models

import "time"

// RateDenominator is the fixed denominator score rates are expressed over.
const RateDenominator uint64 = 100_000

// SettlementConfig is the versioned score-rate and reward configuration.
type SettlementConfig struct {
	ID             uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	QuestRate      uint64 `gorm:"not null" json:"quest"`
	ActivityRate   uint64 `gorm:"not null" json:"activity"`
	CollectingRate uint64 `gorm:"not null" json:"collecting"`
	ScorePerGate   uint64 `gorm:"not null" json:"score_per_gate"`

	RewardRankFloor            Rank   `gorm:"not null" json:"reward_rank_floor"`
	SeasonScoreCollectionID    uint64 `json:"season_score_collection_id"`
	LegendarySceneCollectionID uint64 `json:"legendary_scene_collection_id"`

	Version   uint64    `gorm:"not null" json:"version"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SeasonScore is derived on every read and never stored.
type SeasonScore struct {
	QuestScore               uint64 `json:"quest_score"`
	ActivityScore            uint64 `json:"activity_score"`
	CollectingScore          uint64 `json:"collecting_score"`
	ConvertedQuestScore      uint64 `json:"converted_quest_score"`
	ConvertedActivityScore   uint64 `json:"converted_activity_score"`
	ConvertedCollectingScore uint64 `json:"converted_collecting_score"`
	SeasonScore              uint64 `json:"season_score"`
}

// SeasonClaim is the at-most-once claimed flag for (season, hunter).
type SeasonClaim struct {
	SeasonID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"season_id"`
	Hunter      string    `gorm:"primaryKey;type:varchar(42)" json:"hunter"`
	SeasonScore uint64    `gorm:"not null" json:"season_score"`
	Legendary   bool      `gorm:"not null" json:"legendary_scene"`
	Ordinal     uint64    `gorm:"not null" json:"ordinal"`
	ClaimedAt   time.Time `json:"claimed_at" gorm:"autoCreateTime"`
}

// QuestCompletion is an operator-confirmed quest fact feeding the quest score.
type QuestCompletion struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SeasonID uint64 `gorm:"uniqueIndex:idx_quest_once;not null" json:"season_id"`
	Hunter   string `gorm:"uniqueIndex:idx_quest_once;type:varchar(42);not null" json:"hunter"`
	QuestID  string `gorm:"uniqueIndex:idx_quest_once;type:varchar(64);not null" json:"quest_id"`
	Score    uint64 `gorm:"not null" json:"score"`
	Ordinal  uint64 `gorm:"not null" json:"ordinal"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
