package models

import "time"

// Monster ids double as token ids inside the tier's monster collection.
type Monster struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name     string `json:"name"`
	Rank     Rank   `gorm:"not null" json:"rank"`
	IsShadow bool   `gorm:"not null;index" json:"is_shadow"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

const (
	MonsterTierNormal = "normal"
	MonsterTierShadow = "shadow"
)

// ShadowScoreCount is the length of the shadow score table (B, A, S).
const ShadowScoreCount = int(RankS-ShadowFloor) + 1

func MonsterTierName(isShadow bool) string {
	if isShadow {
		return MonsterTierShadow
	}
	return MonsterTierNormal
}

// MonsterTier is the versioned per-tier configuration: which collection holds the
// monster tokens and the rank -> score weight table used for collecting score.
type MonsterTier struct {
	Tier         string   `gorm:"primaryKey;type:varchar(16)" json:"tier"`
	CollectionID uint64   `json:"collection_id"`
	Scores       []uint64 `gorm:"type:text;serializer:json" json:"scores"`
	Version      uint64   `gorm:"not null" json:"version"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ScoreOf returns the weight of a monster of rank r in this tier.
func (t MonsterTier) ScoreOf(r Rank, isShadow bool) uint64 {
	idx := int(r)
	if isShadow {
		idx = int(r) - int(ShadowFloor)
	}
	if idx < 0 || idx >= len(t.Scores) {
		return 0
	}
	return t.Scores[idx]
}
