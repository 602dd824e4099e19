package services

import (
	"context"
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

const gateConfigRowID = 1

type GateService struct {
	Store  *Store
	Ledger TokenLedger
}

func NewGateService(store *Store, ledger TokenLedger) *GateService {
	return &GateService{Store: store, Ledger: ledger}
}

// EnterResult is returned directly by EnterToGate; IsRankUp means the entry
// reached the rank-up threshold and the hunter is now at NextRank.
type EnterResult struct {
	Gate     models.Gate `json:"gate"`
	IsRankUp bool        `json:"is_rank_up"`
	NextRank models.Rank `json:"next_rank"`
}

func loadGateConfig(tx *gorm.DB) (*models.GateConfig, error) {
	var cfg models.GateConfig
	err := tx.First(&cfg, gateConfigRowID).Error
	if isNotFound(err) {
		return &models.GateConfig{
			ID:                gateConfigRowID,
			SlotPerRank:       cloneTable(DefaultSlotPerRank),
			RequiredGateCount: cloneTable(DefaultRequiredGateCount),
			BlockPerRank:      cloneTable(DefaultGateBlockPerRank),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *GateService) updateConfig(ctx context.Context, op string, mutate func(cfg *models.GateConfig)) error {
	return s.Store.Write(ctx, op, func(tx *gorm.DB) error {
		cfg, err := loadGateConfig(tx)
		if err != nil {
			return err
		}
		mutate(cfg)
		cfg.Version++
		return tx.Save(cfg).Error
	})
}

func (s *GateService) SetSlotPerHunterRank(ctx context.Context, slots []uint64) error {
	if err := validateTable("slot per hunter rank", slots, models.RankCount); err != nil {
		return err
	}
	return s.updateConfig(ctx, "gate.set_slot_per_rank", func(cfg *models.GateConfig) {
		cfg.SlotPerRank = cloneTable(slots)
	})
}

func (s *GateService) SetRequiredGateCountForRankUp(ctx context.Context, counts []uint64) error {
	if err := validateTable("required gate count", counts, rankUpTableLen); err != nil {
		return err
	}
	return s.updateConfig(ctx, "gate.set_required_gate_count", func(cfg *models.GateConfig) {
		cfg.RequiredGateCount = cloneTable(counts)
	})
}

// SetGateBlockPerRank sets how many blocks a gate of each rank stays open.
func (s *GateService) SetGateBlockPerRank(ctx context.Context, blocks []uint64) error {
	if err := validateTable("gate block per rank", blocks, models.RankCount); err != nil {
		return err
	}
	for i, b := range blocks {
		if b == 0 {
			return apperr.Newf(apperr.CodeInvalidArgument, "gate duration for rank %s is zero", models.Rank(i))
		}
	}
	return s.updateConfig(ctx, "gate.set_block_per_rank", func(cfg *models.GateConfig) {
		cfg.BlockPerRank = cloneTable(blocks)
	})
}

func (s *GateService) GetGateConfig(ctx context.Context) (*models.GateConfig, error) {
	var cfg *models.GateConfig
	err := s.Store.Read(ctx, "gate.get_config", func(tx *gorm.DB) error {
		var err error
		cfg, err = loadGateConfig(tx)
		return err
	})
	return cfg, err
}

func usingSlot(tx *gorm.DB, seasonID uint64, hunter common.Address, ordinal uint64) (uint64, error) {
	var n int64
	err := tx.Model(&models.Gate{}).
		Where("season_id = ? AND hunter = ? AND claimed = ? AND end_ordinal > ?", seasonID, hunter.Hex(), false, ordinal).
		Count(&n).Error
	return uint64(n), err
}

func loadGate(tx *gorm.DB, id uint64) (*models.Gate, error) {
	var g models.Gate
	err := tx.First(&g, "id = ?", id).Error
	if isNotFound(err) {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "gate %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// EnterToGate opens a gate for the hunter, consuming one key of the gate's rank.
// When the entry reaches the configured gate count for the hunter's rank, the
// hunter advances in the same transition.
func (s *GateService) EnterToGate(ctx context.Context, seasonID uint64, hunter common.Address, gateRank models.Rank) (*EnterResult, error) {
	var result EnterResult
	err := s.Store.Write(ctx, "gate.enter", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadActiveSeason(tx, seasonID, ordinal)
		if err != nil {
			return err
		}

		rank, err := hunterRank(tx, season.ID, hunter)
		if err != nil {
			return err
		}
		if !gateRank.Valid() || gateRank > rank {
			return apperr.Newf(apperr.CodeInvalidRankType, "gate %s above hunter rank %s", gateRank, rank)
		}

		cfg, err := loadGateConfig(tx)
		if err != nil {
			return err
		}
		using, err := usingSlot(tx, season.ID, hunter, ordinal)
		if err != nil {
			return err
		}
		if using >= cfg.SlotPerRank[rank] {
			return apperr.Newf(apperr.CodeSlotExceeded, "%d of %d slots in use", using, cfg.SlotPerRank[rank])
		}

		pack, err := collectionContract(tx, season.SeasonPackCollectionID)
		if err != nil {
			return err
		}
		keys, err := s.Ledger.BalanceOf(tx, pack, hunter, gateRank.TokenID())
		if err != nil {
			return err
		}
		if keys < 1 {
			return apperr.Newf(apperr.CodeInvalidArgument, "no %s gate key", gateRank)
		}
		if err := s.Ledger.Burn(tx, pack, hunter, gateRank.TokenID(), 1); err != nil {
			return err
		}

		id, err := nextID(tx, &models.Gate{})
		if err != nil {
			return err
		}
		gate := models.Gate{
			ID:           id,
			SeasonID:     season.ID,
			Hunter:       hunter.Hex(),
			GateRank:     gateRank,
			HunterRank:   rank,
			StartOrdinal: ordinal,
			EndOrdinal:   ordinal + cfg.BlockPerRank[gateRank],
		}

		result.NextRank = rank
		if gateRank == rank && rank < models.RankS {
			required := cfg.RequiredGateCount[rank]
			var entered int64
			if err := tx.Model(&models.Gate{}).
				Where("season_id = ? AND hunter = ? AND hunter_rank = ? AND gate_rank = ?", season.ID, gate.Hunter, rank, rank).
				Count(&entered).Error; err != nil {
				return err
			}
			if required > 0 && uint64(entered)+1 >= required {
				gate.IsRankUp = true
			}
		}

		if err := tx.Create(&gate).Error; err != nil {
			return err
		}

		if gate.IsRankUp {
			next, err := advanceHunterRank(tx, s.Ledger, season, hunter, rank, ordinal)
			if err != nil {
				return err
			}
			result.IsRankUp = true
			result.NextRank = next
		}

		result.Gate = gate
		return appendEvent(tx, models.EventGateEntered, season.ID, hunter, ordinal, result)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🚪 [GATE] %s entered gate %d (%s) season=%d ends=%d rank_up=%t",
		result.Gate.Hunter, result.Gate.ID, result.Gate.GateRank, result.Gate.SeasonID, result.Gate.EndOrdinal, result.IsRankUp)
	return &result, nil
}

func (s *GateService) GetHunterUsingSlot(ctx context.Context, seasonID uint64, hunter common.Address) (uint64, error) {
	slot, err := s.GetHunterSlot(ctx, seasonID, hunter)
	if err != nil {
		return 0, err
	}
	return slot.UsingSlot, nil
}

// GetHunterSlot reports the allowance for the hunter's current rank and the open gates using it.
func (s *GateService) GetHunterSlot(ctx context.Context, seasonID uint64, hunter common.Address) (*models.HunterSlot, error) {
	var slot models.HunterSlot
	err := s.Store.Read(ctx, "gate.hunter_slot", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		if _, err := loadSeason(tx, seasonID); err != nil {
			return err
		}
		rank, err := hunterRank(tx, seasonID, hunter)
		if err != nil {
			return err
		}
		cfg, err := loadGateConfig(tx)
		if err != nil {
			return err
		}
		slot.TotalSlot = cfg.SlotPerRank[rank]
		slot.UsingSlot, err = usingSlot(tx, seasonID, hunter, ordinal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// withGate runs fn against one gate and the current ordinal.
func (s *GateService) withGate(ctx context.Context, op string, gateID uint64, fn func(g *models.Gate, ordinal uint64)) error {
	return s.Store.Read(ctx, op, func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		g, err := loadGate(tx, gateID)
		if err != nil {
			return err
		}
		fn(g, ordinal)
		return nil
	})
}

func (s *GateService) GetGateRemainingBlock(ctx context.Context, gateID uint64) (uint64, error) {
	var remaining uint64
	err := s.withGate(ctx, "gate.remaining_block", gateID, func(g *models.Gate, ordinal uint64) {
		remaining = g.RemainingBlocks(ordinal)
	})
	return remaining, err
}

func (s *GateService) IsClaimedGate(ctx context.Context, gateID uint64) (bool, error) {
	var claimed bool
	err := s.withGate(ctx, "gate.is_claimed", gateID, func(g *models.Gate, _ uint64) {
		claimed = g.Claimed
	})
	return claimed, err
}

// IsClearGate reports whether the gate has run its full duration.
func (s *GateService) IsClearGate(ctx context.Context, gateID uint64) (bool, error) {
	var cleared bool
	err := s.withGate(ctx, "gate.is_clear", gateID, func(g *models.Gate, ordinal uint64) {
		cleared = g.IsCleared(ordinal)
	})
	return cleared, err
}

// GateStatus is a gate's progress at one ordinal.
type GateStatus struct {
	GateID         uint64 `json:"id"`
	Ordinal        uint64 `json:"ordinal"`
	RemainingBlock uint64 `json:"remaining_block"`
	Cleared        bool   `json:"cleared"`
	Claimed        bool   `json:"claimed"`
}

func (s *GateService) GetGateStatus(ctx context.Context, gateID uint64) (*GateStatus, error) {
	var status GateStatus
	err := s.withGate(ctx, "gate.status", gateID, func(g *models.Gate, ordinal uint64) {
		status = GateStatus{
			GateID:         g.ID,
			Ordinal:        ordinal,
			RemainingBlock: g.RemainingBlocks(ordinal),
			Cleared:        g.IsCleared(ordinal),
			Claimed:        g.Claimed,
		}
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *GateService) GetGate(ctx context.Context, gateID uint64) (*models.Gate, error) {
	var gate models.Gate
	err := s.withGate(ctx, "gate.get", gateID, func(g *models.Gate, _ uint64) {
		gate = *g
	})
	if err != nil {
		return nil, err
	}
	return &gate, nil
}

// GetGateIDOfHunterSlot lists the ids of the gates currently occupying the hunter's slots.
func (s *GateService) GetGateIDOfHunterSlot(ctx context.Context, hunter common.Address) ([]uint64, error) {
	ids := []uint64{}
	err := s.Store.Read(ctx, "gate.hunter_slot_ids", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		return tx.Model(&models.Gate{}).
			Where("hunter = ? AND claimed = ? AND end_ordinal > ?", hunter.Hex(), false, ordinal).
			Order("id ASC").
			Pluck("id", &ids).Error
	})
	return ids, err
}

func (s *GateService) ListHunterGates(ctx context.Context, seasonID uint64, hunter common.Address) ([]models.Gate, error) {
	var gates []models.Gate
	err := s.Store.Read(ctx, "gate.list_hunter", func(tx *gorm.DB) error {
		if _, err := loadSeason(tx, seasonID); err != nil {
			return err
		}
		return tx.Where("season_id = ? AND hunter = ?", seasonID, hunter.Hex()).Order("id ASC").Find(&gates).Error
	})
	return gates, err
}
