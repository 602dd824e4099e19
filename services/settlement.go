package services

import (
	"context"
	"log"
	"math/bits"
	"slices"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const settlementConfigRowID = 1

type SettlementService struct {
	Store  *Store
	Ledger TokenLedger
}

func NewSettlementService(store *Store, ledger TokenLedger) *SettlementService {
	return &SettlementService{Store: store, Ledger: ledger}
}

type ScoreRate struct {
	Quest       uint64 `json:"quest"`
	Activity    uint64 `json:"activity"`
	Collecting  uint64 `json:"collecting"`
	Denominator uint64 `json:"denominator"`
}

// HunterScore is one line of a season's score report.
type HunterScore struct {
	Hunter  string             `json:"hunter"`
	Rank    models.Rank        `json:"rank"`
	Score   models.SeasonScore `json:"score"`
	Claimed bool               `json:"claimed"`
}

func loadSettlementConfig(tx *gorm.DB) (*models.SettlementConfig, error) {
	var cfg models.SettlementConfig
	err := tx.First(&cfg, settlementConfigRowID).Error
	if isNotFound(err) {
		return &models.SettlementConfig{
			ID:              settlementConfigRowID,
			QuestRate:       DefaultQuestRate,
			ActivityRate:    DefaultActivityRate,
			CollectingRate:  DefaultCollectingRate,
			ScorePerGate:    DefaultScorePerGate,
			RewardRankFloor: models.RankE,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SettlementService) updateConfig(ctx context.Context, op string, mutate func(tx *gorm.DB, cfg *models.SettlementConfig) error) error {
	return s.Store.Write(ctx, op, func(tx *gorm.DB) error {
		cfg, err := loadSettlementConfig(tx)
		if err != nil {
			return err
		}
		if err := mutate(tx, cfg); err != nil {
			return err
		}
		cfg.Version++
		return tx.Save(cfg).Error
	})
}

// SetScoreRate replaces the conversion weights; they must sum to RateDenominator.
func (s *SettlementService) SetScoreRate(ctx context.Context, quest, activity, collecting uint64) error {
	sum, c1 := bits.Add64(quest, activity, 0)
	sum, c2 := bits.Add64(sum, collecting, 0)
	if c1 != 0 || c2 != 0 || sum != models.RateDenominator {
		return apperr.Newf(apperr.CodeInvalidRate, "rates %d+%d+%d must sum to %d", quest, activity, collecting, models.RateDenominator)
	}
	return s.updateConfig(ctx, "settlement.set_score_rate", func(_ *gorm.DB, cfg *models.SettlementConfig) error {
		cfg.QuestRate, cfg.ActivityRate, cfg.CollectingRate = quest, activity, collecting
		return nil
	})
}

func (s *SettlementService) SetScorePerGate(ctx context.Context, value uint64) error {
	return s.updateConfig(ctx, "settlement.set_score_per_gate", func(_ *gorm.DB, cfg *models.SettlementConfig) error {
		cfg.ScorePerGate = value
		return nil
	})
}

// SetRewardCollections sets the season-score and legendary-scene collections. Zero unsets one.
func (s *SettlementService) SetRewardCollections(ctx context.Context, seasonScoreID, legendarySceneID uint64) error {
	return s.updateConfig(ctx, "settlement.set_reward_collections", func(tx *gorm.DB, cfg *models.SettlementConfig) error {
		for _, id := range []uint64{seasonScoreID, legendarySceneID} {
			if id == 0 {
				continue
			}
			if _, err := requireFungible(tx, id, false); err != nil {
				return err
			}
		}
		cfg.SeasonScoreCollectionID = seasonScoreID
		cfg.LegendarySceneCollectionID = legendarySceneID
		return nil
	})
}

func (s *SettlementService) SetRewardRankFloor(ctx context.Context, floor models.Rank) error {
	if !floor.Valid() {
		return apperr.Newf(apperr.CodeInvalidRankType, "rank %d", floor)
	}
	return s.updateConfig(ctx, "settlement.set_reward_rank_floor", func(_ *gorm.DB, cfg *models.SettlementConfig) error {
		cfg.RewardRankFloor = floor
		return nil
	})
}

func (s *SettlementService) GetSettlementConfig(ctx context.Context) (*models.SettlementConfig, error) {
	var cfg *models.SettlementConfig
	err := s.Store.Read(ctx, "settlement.get_config", func(tx *gorm.DB) error {
		var err error
		cfg, err = loadSettlementConfig(tx)
		return err
	})
	return cfg, err
}

func (s *SettlementService) GetScoreRate(ctx context.Context) (*ScoreRate, error) {
	cfg, err := s.GetSettlementConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &ScoreRate{
		Quest:       cfg.QuestRate,
		Activity:    cfg.ActivityRate,
		Collecting:  cfg.CollectingRate,
		Denominator: models.RateDenominator,
	}, nil
}

// RecordQuestCompletion stores an operator-confirmed quest result for an active season.
func (s *SettlementService) RecordQuestCompletion(ctx context.Context, seasonID uint64, hunter common.Address, questID string, score uint64) (*models.QuestCompletion, error) {
	if questID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "quest id is required")
	}

	var qc models.QuestCompletion
	err := s.Store.Write(ctx, "settlement.record_quest", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		if _, err := loadActiveSeason(tx, seasonID, ordinal); err != nil {
			return err
		}

		var dup int64
		if err := tx.Model(&models.QuestCompletion{}).
			Where("season_id = ? AND hunter = ? AND quest_id = ?", seasonID, hunter.Hex(), questID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return apperr.Newf(apperr.CodeAlreadyClaimed, "quest %s already recorded", questID)
		}

		qc = models.QuestCompletion{
			ID:       uuid.NewString(),
			SeasonID: seasonID,
			Hunter:   hunter.Hex(),
			QuestID:  questID,
			Score:    score,
			Ordinal:  ordinal,
		}
		if err := tx.Create(&qc).Error; err != nil {
			return err
		}
		return appendEvent(tx, models.EventQuestCompleted, seasonID, hunter, ordinal, qc)
	})
	if err != nil {
		return nil, err
	}
	return &qc, nil
}

// convert computes floor(raw * rate / RateDenominator) without overflowing.
// rate never exceeds the denominator, so the quotient always fits.
func convert(raw, rate uint64) uint64 {
	hi, lo := bits.Mul64(raw, rate)
	q, _ := bits.Div64(hi, lo, models.RateDenominator)
	return q
}

func addScore(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, apperr.New(apperr.CodeInvalidArgument, "score overflow")
	}
	return sum, nil
}

func mulScore(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, apperr.New(apperr.CodeInvalidArgument, "score overflow")
	}
	return lo, nil
}

func questScore(tx *gorm.DB, seasonID uint64, hunter common.Address) (uint64, error) {
	var scores []uint64
	if err := tx.Model(&models.QuestCompletion{}).
		Where("season_id = ? AND hunter = ?", seasonID, hunter.Hex()).
		Pluck("score", &scores).Error; err != nil {
		return 0, err
	}
	var total uint64
	for _, v := range scores {
		var err error
		if total, err = addScore(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func activityScore(tx *gorm.DB, seasonID uint64, hunter common.Address, perGate uint64) (uint64, error) {
	var entered int64
	if err := tx.Model(&models.Gate{}).
		Where("season_id = ? AND hunter = ?", seasonID, hunter.Hex()).
		Count(&entered).Error; err != nil {
		return 0, err
	}
	return mulScore(uint64(entered), perGate)
}

// collectingScore weighs every held monster token by its tier's score table.
func collectingScore(tx *gorm.DB, ledger TokenLedger, hunter common.Address) (uint64, error) {
	var total uint64
	for _, isShadow := range []bool{false, true} {
		tier, err := loadTier(tx, isShadow)
		if err != nil {
			return 0, err
		}
		if tier.CollectionID == 0 {
			continue
		}
		contract, err := collectionContract(tx, tier.CollectionID)
		if err != nil {
			return 0, err
		}

		var monsters []models.Monster
		if err := tx.Where("is_shadow = ?", isShadow).Order("id ASC").Find(&monsters).Error; err != nil {
			return 0, err
		}
		if len(monsters) == 0 {
			continue
		}

		holders := make([]common.Address, len(monsters))
		ids := make([]uint64, len(monsters))
		for i, m := range monsters {
			holders[i] = hunter
			ids[i] = m.ID
		}
		balances, err := ledger.BalanceOfBatch(tx, contract, holders, ids)
		if err != nil {
			return 0, err
		}

		for i, m := range monsters {
			weighted, err := mulScore(balances[i], tier.ScoreOf(m.Rank, isShadow))
			if err != nil {
				return 0, err
			}
			if total, err = addScore(total, weighted); err != nil {
				return 0, err
			}
		}
	}
	return total, nil
}

func computeSeasonScore(tx *gorm.DB, ledger TokenLedger, seasonID uint64, hunter common.Address, cfg *models.SettlementConfig) (*models.SeasonScore, error) {
	var (
		score models.SeasonScore
		err   error
	)
	if score.QuestScore, err = questScore(tx, seasonID, hunter); err != nil {
		return nil, err
	}
	if score.ActivityScore, err = activityScore(tx, seasonID, hunter, cfg.ScorePerGate); err != nil {
		return nil, err
	}
	if score.CollectingScore, err = collectingScore(tx, ledger, hunter); err != nil {
		return nil, err
	}

	score.ConvertedQuestScore = convert(score.QuestScore, cfg.QuestRate)
	score.ConvertedActivityScore = convert(score.ActivityScore, cfg.ActivityRate)
	score.ConvertedCollectingScore = convert(score.CollectingScore, cfg.CollectingRate)

	// each converted value is at most its raw value, and rates sum to the denominator
	score.SeasonScore = score.ConvertedQuestScore
	for _, v := range []uint64{score.ConvertedActivityScore, score.ConvertedCollectingScore} {
		if score.SeasonScore, err = addScore(score.SeasonScore, v); err != nil {
			return nil, err
		}
	}
	return &score, nil
}

func (s *SettlementService) seasonScore(ctx context.Context, op string, seasonID uint64, hunter common.Address, wantEnded bool) (*models.SeasonScore, error) {
	var score *models.SeasonScore
	err := s.Store.Read(ctx, op, func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadSeason(tx, seasonID)
		if err != nil {
			return err
		}
		if season.IsEnded(ordinal) != wantEnded {
			return apperr.Newf(apperr.CodeInvalidSeasonID, "season %d is %s", seasonID, season.PhaseAt(ordinal))
		}
		cfg, err := loadSettlementConfig(tx)
		if err != nil {
			return err
		}
		score, err = computeSeasonScore(tx, s.Ledger, seasonID, hunter, cfg)
		return err
	})
	return score, err
}

// GetCurrentSeasonScore is valid until the season ends.
func (s *SettlementService) GetCurrentSeasonScore(ctx context.Context, seasonID uint64, hunter common.Address) (*models.SeasonScore, error) {
	return s.seasonScore(ctx, "settlement.current_score", seasonID, hunter, false)
}

// GetEndedSeasonScore is valid once the season has ended.
func (s *SettlementService) GetEndedSeasonScore(ctx context.Context, seasonID uint64, hunter common.Address) (*models.SeasonScore, error) {
	return s.seasonScore(ctx, "settlement.ended_score", seasonID, hunter, true)
}

// ClaimSeasonReward settles an ended season for one hunter, at most once.
func (s *SettlementService) ClaimSeasonReward(ctx context.Context, seasonID uint64, hunter common.Address) (*models.SeasonClaim, error) {
	var claim models.SeasonClaim
	err := s.Store.Write(ctx, "settlement.claim", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadSeason(tx, seasonID)
		if err != nil {
			return err
		}
		if !season.IsEnded(ordinal) {
			return apperr.Newf(apperr.CodeInvalidSeasonID, "season %d has not ended", seasonID)
		}

		var claimed int64
		if err := tx.Model(&models.SeasonClaim{}).
			Where("season_id = ? AND hunter = ?", seasonID, hunter.Hex()).
			Count(&claimed).Error; err != nil {
			return err
		}
		if claimed > 0 {
			return apperr.Newf(apperr.CodeAlreadyClaimed, "season %d", seasonID)
		}

		cfg, err := loadSettlementConfig(tx)
		if err != nil {
			return err
		}
		rank, err := hunterRank(tx, seasonID, hunter)
		if err != nil {
			return err
		}
		if rank < cfg.RewardRankFloor {
			return apperr.Newf(apperr.CodeInvalidRankType, "rank %s below reward floor %s", rank, cfg.RewardRankFloor)
		}
		// claims are one-shot: never settle without a score collection
		if cfg.SeasonScoreCollectionID == 0 {
			log.Printf("⚠️ [CLAIM] season %d claim by %s refused: season score collection unset", seasonID, hunter.Hex())
			return apperr.New(apperr.CodeInvalidCollectionID, "season score collection is not configured")
		}

		score, err := computeSeasonScore(tx, s.Ledger, seasonID, hunter, cfg)
		if err != nil {
			return err
		}

		if score.SeasonScore > 0 {
			contract, err := collectionContract(tx, cfg.SeasonScoreCollectionID)
			if err != nil {
				return err
			}
			if err := s.Ledger.Mint(tx, contract, hunter, seasonID, score.SeasonScore); err != nil {
				return err
			}
		}

		legendary := false
		if cfg.LegendarySceneCollectionID != 0 {
			rankContract, err := collectionContract(tx, season.HunterRankCollectionID)
			if err != nil {
				return err
			}
			sTokens, err := s.Ledger.BalanceOf(tx, rankContract, hunter, models.RankS.TokenID())
			if err != nil {
				return err
			}
			if sTokens > 0 {
				scene, err := collectionContract(tx, cfg.LegendarySceneCollectionID)
				if err != nil {
					return err
				}
				if err := s.Ledger.Mint(tx, scene, hunter, seasonID, 1); err != nil {
					return err
				}
				legendary = true
			}
		}

		if err := tx.Model(&models.Gate{}).
			Where("season_id = ? AND hunter = ?", seasonID, hunter.Hex()).
			Update("claimed", true).Error; err != nil {
			return err
		}

		claim = models.SeasonClaim{
			SeasonID:    seasonID,
			Hunter:      hunter.Hex(),
			SeasonScore: score.SeasonScore,
			Legendary:   legendary,
			Ordinal:     ordinal,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}
		return appendEvent(tx, models.EventSeasonClaimed, seasonID, hunter, ordinal, claim)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🏆 [CLAIM] %s claimed season %d: score=%d legendary=%t", claim.Hunter, claim.SeasonID, claim.SeasonScore, claim.Legendary)
	return &claim, nil
}

func (s *SettlementService) GetSeasonClaim(ctx context.Context, seasonID uint64, hunter common.Address) (*models.SeasonClaim, error) {
	var claim models.SeasonClaim
	err := s.Store.Read(ctx, "settlement.get_claim", func(tx *gorm.DB) error {
		err := tx.First(&claim, "season_id = ? AND hunter = ?", seasonID, hunter.Hex()).Error
		if isNotFound(err) {
			return apperr.Newf(apperr.CodeInvalidArgument, "season %d not claimed by %s", seasonID, hunter.Hex())
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// SeasonReport scores every hunter who ranked, entered a gate or completed a quest in the season.
func (s *SettlementService) SeasonReport(ctx context.Context, seasonID uint64) ([]HunterScore, error) {
	var report []HunterScore
	err := s.Store.Read(ctx, "settlement.season_report", func(tx *gorm.DB) error {
		if _, err := loadSeason(tx, seasonID); err != nil {
			return err
		}
		cfg, err := loadSettlementConfig(tx)
		if err != nil {
			return err
		}

		seen := map[string]bool{}
		var hunters []string
		for _, model := range []any{&models.HunterRank{}, &models.Gate{}, &models.QuestCompletion{}} {
			var batch []string
			if err := tx.Model(model).Where("season_id = ?", seasonID).Distinct().Pluck("hunter", &batch).Error; err != nil {
				return err
			}
			for _, h := range batch {
				if !seen[h] {
					seen[h] = true
					hunters = append(hunters, h)
				}
			}
		}

		slices.Sort(hunters)
		for _, h := range hunters {
			addr := common.HexToAddress(h)
			rank, err := hunterRank(tx, seasonID, addr)
			if err != nil {
				return err
			}
			score, err := computeSeasonScore(tx, s.Ledger, seasonID, addr, cfg)
			if err != nil {
				return err
			}
			var claimed int64
			if err := tx.Model(&models.SeasonClaim{}).Where("season_id = ? AND hunter = ?", seasonID, h).Count(&claimed).Error; err != nil {
				return err
			}
			report = append(report, HunterScore{Hunter: h, Rank: rank, Score: *score, Claimed: claimed > 0})
		}
		return nil
	})
	return report, err
}
