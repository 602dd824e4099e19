package models

import "time"

type EventKind string

const (
	EventSeasonAdded    EventKind = "season_added"
	EventRankUp         EventKind = "rank_up"
	EventGateEntered    EventKind = "gate_entered"
	EventQuestCompleted EventKind = "quest_completed"
	EventSeasonClaimed  EventKind = "season_claimed"
)

// EventRecord is the append-only log of emitted domain events.
type EventRecord struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Seq      uint64    `gorm:"uniqueIndex;not null" json:"seq"`
	Kind     EventKind `gorm:"type:varchar(32);index;not null" json:"kind"`
	SeasonID uint64    `gorm:"index" json:"season_id"`
	Hunter   string    `gorm:"type:varchar(42);index" json:"hunter,omitempty"`
	Ordinal  uint64    `gorm:"not null" json:"ordinal"`
	Payload  string    `gorm:"type:text" json:"payload"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// ChainClock is the single persisted ordinal row.
type ChainClock struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Ordinal   uint64    `gorm:"not null" json:"ordinal"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&ChainClock{},
		&TokenContract{},
		&TokenBalance{},
		&Collection{},
		&Monster{},
		&MonsterTier{},
		&Season{},
		&SeasonConfig{},
		&SeasonArchive{},
		&HunterRank{},
		&MonsterBurn{},
		&Gate{},
		&GateConfig{},
		&SettlementConfig{},
		&SeasonClaim{},
		&QuestCompletion{},
		&Operator{},
		&EventRecord{},
	}
}
