package models

import "time"

// SeasonPhase is derived from the season bounds and the current ordinal; it is never stored.
type SeasonPhase string

const (
	SeasonScheduled SeasonPhase = "scheduled"
	SeasonActive    SeasonPhase = "active"
	SeasonEnded     SeasonPhase = "ended"
)

type Season struct {
	ID                     uint64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	StartOrdinal           uint64   `gorm:"not null" json:"start_ordinal"`
	EndOrdinal             uint64   `gorm:"not null" json:"end_ordinal"`
	HunterRankCollectionID uint64   `gorm:"not null" json:"hunter_rank_collection_id"`
	SeasonPackCollectionID uint64   `gorm:"not null" json:"season_pack_collection_id"`
	CollectionIDs          []uint64 `gorm:"type:text;serializer:json" json:"season_collection_ids"`

	Phase SeasonPhase `gorm:"-" json:"phase,omitempty"`

	Timestamps
}

func (s Season) PhaseAt(ordinal uint64) SeasonPhase {
	switch {
	case ordinal < s.StartOrdinal:
		return SeasonScheduled
	case ordinal < s.EndOrdinal:
		return SeasonActive
	default:
		return SeasonEnded
	}
}

func (s Season) IsStarted(ordinal uint64) bool { return ordinal >= s.StartOrdinal }
func (s Season) IsEnded(ordinal uint64) bool   { return ordinal >= s.EndOrdinal }
func (s Season) IsCurrent(ordinal uint64) bool { return s.PhaseAt(ordinal) == SeasonActive }

// SeasonConfig is the versioned required-monster table for rank-ups.
// NormalRequired is indexed by rank E..A, ShadowRequired by B..A.
type SeasonConfig struct {
	ID             uint     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	NormalRequired []uint64 `gorm:"type:text;serializer:json" json:"normal_required"`
	ShadowRequired []uint64 `gorm:"type:text;serializer:json" json:"shadow_required"`
	Version        uint64   `gorm:"not null" json:"version"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SeasonArchive records that an ended season's score report was exported.
type SeasonArchive struct {
	SeasonID   uint64    `gorm:"primaryKey;autoIncrement:false" json:"season_id"`
	ObjectKey  string    `gorm:"not null" json:"object_key"`
	URL        string    `json:"url"`
	Hunters    int       `json:"hunters"`
	ArchivedAt time.Time `json:"archived_at" gorm:"autoCreateTime"`
}
