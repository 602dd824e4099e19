package models

import "time"

// Gate is a time-boxed dungeon instance entered by one hunter.
type Gate struct {
	ID                   uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SeasonID             uint64 `gorm:"index:idx_gate_hunter;not null" json:"season_id"`
	Hunter               string `gorm:"index:idx_gate_hunter;type:varchar(42);not null" json:"hunter"`
	GateRank             Rank   `gorm:"not null" json:"gate_rank"`
	HunterRank           Rank   `gorm:"not null" json:"hunter_rank"` // hunter's rank at entry
	StartOrdinal         uint64 `gorm:"not null" json:"start_ordinal"`
	EndOrdinal           uint64 `gorm:"not null" json:"end_ordinal"`
	Claimed              bool   `gorm:"not null" json:"claimed"`
	UsedBrokenStoneCount uint64 `gorm:"not null" json:"used_broken_stone_count"`
	IsRankUp             bool   `gorm:"not null" json:"is_rank_up"`

	Timestamps
}

// IsOpen reports whether the gate still occupies a slot at ordinal.
func (g Gate) IsOpen(ordinal uint64) bool { return !g.Claimed && ordinal < g.EndOrdinal }

// IsCleared reports whether the gate ran its full duration.
func (g Gate) IsCleared(ordinal uint64) bool { return ordinal >= g.EndOrdinal }

func (g Gate) RemainingBlocks(ordinal uint64) uint64 {
	if ordinal >= g.EndOrdinal {
		return 0
	}
	return g.EndOrdinal - ordinal
}

// GateConfig holds the versioned per-rank gate tables.
// SlotPerRank and BlockPerRank are indexed E..S, RequiredGateCount E..A.
type GateConfig struct {
	ID                uint     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	SlotPerRank       []uint64 `gorm:"type:text;serializer:json" json:"slot_per_hunter_rank"`
	RequiredGateCount []uint64 `gorm:"type:text;serializer:json" json:"required_gate_count_for_rank_up"`
	BlockPerRank      []uint64 `gorm:"type:text;serializer:json" json:"gate_block_per_rank"`
	Version           uint64   `gorm:"not null" json:"version"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// HunterSlot is the slot usage snapshot for one hunter in one season.
type HunterSlot struct {
	TotalSlot uint64 `json:"total_slot"`
	UsingSlot uint64 `json:"using_slot"`
}
