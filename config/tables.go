package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// RankTables seeds the per-rank configuration at startup. Omitted tables keep
// whatever is already stored.
type RankTables struct {
	Gate       GateTables       `toml:"gate"`
	RankUp     RankUpTables     `toml:"rank_up"`
	Monster    MonsterTables    `toml:"monster"`
	Settlement SettlementTables `toml:"settlement"`
}

type GateTables struct {
	SlotPerHunterRank []uint64 `toml:"slot_per_hunter_rank"` // E..S
	RequiredGateCount []uint64 `toml:"required_gate_count"`  // E..A
	BlockPerRank      []uint64 `toml:"block_per_rank"`       // E..S
}

type RankUpTables struct {
	NormalRequired []uint64 `toml:"normal_required"` // E..A
	ShadowRequired []uint64 `toml:"shadow_required"` // B..A
}

type MonsterTables struct {
	NormalScores []uint64 `toml:"normal_scores"` // E..S
	ShadowScores []uint64 `toml:"shadow_scores"` // B..S
}

type SettlementTables struct {
	Rate         *ScoreRate `toml:"rate"`
	ScorePerGate *uint64    `toml:"score_per_gate"`
}

type ScoreRate struct {
	Quest      uint64 `toml:"quest"`
	Activity   uint64 `toml:"activity"`
	Collecting uint64 `toml:"collecting"`
}

// LoadRankTables reads and validates a rank-table file.
func LoadRankTables(path string) (*RankTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rank tables: %w", err)
	}

	var t RankTables
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse rank tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *RankTables) Validate() error {
	checks := []struct {
		name   string
		values []uint64
		want   int
	}{
		{"gate.slot_per_hunter_rank", t.Gate.SlotPerHunterRank, 6},
		{"gate.required_gate_count", t.Gate.RequiredGateCount, 5},
		{"gate.block_per_rank", t.Gate.BlockPerRank, 6},
		{"rank_up.normal_required", t.RankUp.NormalRequired, 5},
		{"rank_up.shadow_required", t.RankUp.ShadowRequired, 2},
		{"monster.normal_scores", t.Monster.NormalScores, 6},
		{"monster.shadow_scores", t.Monster.ShadowScores, 3},
	}
	for _, c := range checks {
		if c.values != nil && len(c.values) != c.want {
			return fmt.Errorf("rank tables: %s needs %d entries, got %d", c.name, c.want, len(c.values))
		}
	}
	if (t.RankUp.NormalRequired == nil) != (t.RankUp.ShadowRequired == nil) {
		return fmt.Errorf("rank tables: rank_up.normal_required and rank_up.shadow_required must be set together")
	}
	return nil
}
