package services

import (
	"context"
	"log"
	"math/bits"
	"time"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const seasonConfigRowID = 1

// SeasonService owns seasons and per-season hunter ranks.
type SeasonService struct {
	Store  *Store
	Ledger TokenLedger
}

func NewSeasonService(store *Store, ledger TokenLedger) *SeasonService {
	return &SeasonService{Store: store, Ledger: ledger}
}

type AddSeasonInput struct {
	HunterRankCollectionID uint64   `json:"hunter_rank_collection_id"`
	SeasonPackCollectionID uint64   `json:"season_pack_collection_id"`
	StartOrdinal           uint64   `json:"start_block"`
	EndOrdinal             uint64   `json:"end_block"`
	CollectionIDs          []uint64 `json:"season_collection_ids"`
}

type RankUpInput struct {
	SeasonID   uint64         `json:"season_id"`
	Hunter     common.Address `json:"-"`
	TargetRank models.Rank    `json:"target_rank"`
	MonsterIDs []uint64       `json:"monster_ids"`
	Amounts    []uint64       `json:"amounts"`
	IsShadow   bool           `json:"is_shadow"`
}

type RankUpResult struct {
	SeasonID     uint64               `json:"season_id"`
	Hunter       string               `json:"hunter"`
	PreviousRank models.Rank          `json:"previous_rank"`
	NewRank      models.Rank          `json:"new_rank"`
	Burns        []models.MonsterBurn `json:"burns"`
}

func loadSeason(tx *gorm.DB, id uint64) (*models.Season, error) {
	var season models.Season
	err := tx.First(&season, "id = ?", id).Error
	if isNotFound(err) {
		return nil, apperr.Newf(apperr.CodeInvalidSeasonID, "season %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &season, nil
}

// loadActiveSeason returns the season only while currentOrdinal is inside its bounds.
func loadActiveSeason(tx *gorm.DB, id, ordinal uint64) (*models.Season, error) {
	season, err := loadSeason(tx, id)
	if err != nil {
		return nil, err
	}
	if !season.IsCurrent(ordinal) {
		return nil, apperr.Newf(apperr.CodeInvalidSeasonID, "season %d is %s", id, season.PhaseAt(ordinal))
	}
	return season, nil
}

// hunterRank reads a hunter's rank without creating the row; missing means E.
func hunterRank(tx *gorm.DB, seasonID uint64, hunter common.Address) (models.Rank, error) {
	var hr models.HunterRank
	err := tx.First(&hr, "season_id = ? AND hunter = ?", seasonID, hunter.Hex()).Error
	if isNotFound(err) {
		return models.RankE, nil
	}
	if err != nil {
		return 0, err
	}
	return hr.Rank, nil
}

// advanceHunterRank moves the hunter up exactly one rank and mints the matching
// rank token from the season's hunter-rank collection.
func advanceHunterRank(tx *gorm.DB, ledger TokenLedger, season *models.Season, hunter common.Address, from models.Rank, ordinal uint64) (models.Rank, error) {
	next, ok := from.Next()
	if !ok {
		return from, apperr.Newf(apperr.CodeInvalidRankType, "rank %s cannot advance", from)
	}

	now := time.Now()
	hr := models.HunterRank{
		SeasonID:          season.ID,
		Hunter:            hunter.Hex(),
		Rank:              next,
		LastRankUpOrdinal: ordinal,
		LastRankUpAt:      &now,
	}
	res := tx.Model(&models.HunterRank{}).
		Where("season_id = ? AND hunter = ? AND rank = ?", season.ID, hr.Hunter, from).
		Updates(map[string]any{"rank": next, "last_rank_up_ordinal": ordinal, "last_rank_up_at": now})
	if res.Error != nil {
		return from, res.Error
	}
	if res.RowsAffected == 0 {
		if err := tx.Create(&hr).Error; err != nil {
			return from, err
		}
	}

	contract, err := collectionContract(tx, season.HunterRankCollectionID)
	if err != nil {
		return from, err
	}
	if err := ledger.Mint(tx, contract, hunter, next.TokenID(), 1); err != nil {
		return from, err
	}
	return next, nil
}

func loadSeasonConfig(tx *gorm.DB) (*models.SeasonConfig, error) {
	var cfg models.SeasonConfig
	err := tx.First(&cfg, seasonConfigRowID).Error
	if isNotFound(err) {
		return &models.SeasonConfig{
			ID:             seasonConfigRowID,
			NormalRequired: cloneTable(DefaultNormalRequired),
			ShadowRequired: cloneTable(DefaultShadowRequired),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateSeasonCollections checks the hunter-rank, pack and per-season collections.
func validateSeasonCollections(tx *gorm.DB, hunterRankID, packID uint64, collectionIDs []uint64) error {
	if _, err := requireFungible(tx, hunterRankID, false); err != nil {
		return err
	}
	if _, err := requireFungible(tx, packID, false); err != nil {
		return err
	}
	for _, id := range collectionIDs {
		if _, err := requireFungible(tx, id, true); err != nil {
			return err
		}
	}
	return nil
}

func neighbourSeasons(tx *gorm.DB, id uint64) (prev, next *models.Season, err error) {
	if id > 0 {
		if prev, err = loadSeason(tx, id-1); err != nil {
			return nil, nil, err
		}
	}
	var n models.Season
	err = tx.First(&n, "id = ?", id+1).Error
	switch {
	case err == nil:
		next = &n
	case !isNotFound(err):
		return nil, nil, err
	}
	return prev, next, nil
}

// AddSeason appends the next season. Seasons never overlap: a new season must
// start strictly after the previous one ends.
func (s *SeasonService) AddSeason(ctx context.Context, in AddSeasonInput) (*models.Season, error) {
	var season models.Season
	err := s.Store.Write(ctx, "season.add", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}

		if in.StartOrdinal <= ordinal {
			return apperr.Newf(apperr.CodeInvalidBlockNumber, "start %d must be after current block %d", in.StartOrdinal, ordinal)
		}
		if in.EndOrdinal <= in.StartOrdinal {
			return apperr.Newf(apperr.CodeInvalidBlockNumber, "end %d must be after start %d", in.EndOrdinal, in.StartOrdinal)
		}

		var count int64
		if err := tx.Model(&models.Season{}).Count(&count).Error; err != nil {
			return err
		}
		id := uint64(count)
		if id > 0 {
			prev, err := loadSeason(tx, id-1)
			if err != nil {
				return err
			}
			if in.StartOrdinal <= prev.EndOrdinal {
				return apperr.Newf(apperr.CodeInvalidBlockNumber, "start %d must be after season %d end %d", in.StartOrdinal, prev.ID, prev.EndOrdinal)
			}
		}

		if err := validateSeasonCollections(tx, in.HunterRankCollectionID, in.SeasonPackCollectionID, in.CollectionIDs); err != nil {
			return err
		}

		season = models.Season{
			ID:                     id,
			StartOrdinal:           in.StartOrdinal,
			EndOrdinal:             in.EndOrdinal,
			HunterRankCollectionID: in.HunterRankCollectionID,
			SeasonPackCollectionID: in.SeasonPackCollectionID,
			CollectionIDs:          cloneTable(in.CollectionIDs),
		}
		if season.CollectionIDs == nil {
			season.CollectionIDs = []uint64{}
		}
		if err := tx.Create(&season).Error; err != nil {
			return err
		}
		season.Phase = season.PhaseAt(ordinal)

		return appendEvent(tx, models.EventSeasonAdded, season.ID, common.Address{}, ordinal, season)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🗓️ [SEASON] added season %d [%d, %d)", season.ID, season.StartOrdinal, season.EndOrdinal)
	return &season, nil
}

// SetSeasonCollection rewires a season's collections until it starts.
func (s *SeasonService) SetSeasonCollection(ctx context.Context, seasonID, hunterRankID, packID uint64, collectionIDs []uint64) error {
	return s.Store.Write(ctx, "season.set_collection", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadSeason(tx, seasonID)
		if err != nil {
			return err
		}
		if season.IsStarted(ordinal) {
			return apperr.Newf(apperr.CodeAlreadyStartSeason, "season %d started at %d", seasonID, season.StartOrdinal)
		}
		if err := validateSeasonCollections(tx, hunterRankID, packID, collectionIDs); err != nil {
			return err
		}

		season.HunterRankCollectionID = hunterRankID
		season.SeasonPackCollectionID = packID
		season.CollectionIDs = cloneTable(collectionIDs)
		if season.CollectionIDs == nil {
			season.CollectionIDs = []uint64{}
		}
		// explicit where: season ids start at 0, which Save would treat as a new row
		return tx.Model(&models.Season{}).Where("id = ?", seasonID).
			Select("hunter_rank_collection_id", "season_pack_collection_id", "collection_ids").
			Updates(season).Error
	})
}

// SetSeasonBlock moves a season's bounds. A started season may move its start
// only to a block that has already passed, so it stays started; an ended
// season is frozen.
func (s *SeasonService) SetSeasonBlock(ctx context.Context, seasonID, newStart, newEnd uint64) error {
	return s.Store.Write(ctx, "season.set_block", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadSeason(tx, seasonID)
		if err != nil {
			return err
		}
		if season.IsEnded(ordinal) {
			return apperr.Newf(apperr.CodeEndedSeason, "season %d ended at %d", seasonID, season.EndOrdinal)
		}

		if season.IsStarted(ordinal) {
			if newStart > ordinal {
				return apperr.Newf(apperr.CodeAlreadyStartSeason, "season %d already started, start %d must not pass current block %d", seasonID, newStart, ordinal)
			}
		} else if newStart <= ordinal {
			return apperr.Newf(apperr.CodeInvalidBlockNumber, "start %d must be after current block %d", newStart, ordinal)
		}
		if newEnd <= newStart || newEnd <= ordinal {
			return apperr.Newf(apperr.CodeInvalidBlockNumber, "end %d must be after start %d and current block %d", newEnd, newStart, ordinal)
		}

		prev, next, err := neighbourSeasons(tx, seasonID)
		if err != nil {
			return err
		}
		if prev != nil && newStart <= prev.EndOrdinal {
			return apperr.Newf(apperr.CodeInvalidBlockNumber, "start %d must be after season %d end %d", newStart, prev.ID, prev.EndOrdinal)
		}
		if next != nil && newEnd >= next.StartOrdinal {
			return apperr.Newf(apperr.CodeInvalidBlockNumber, "end %d must be before season %d start %d", newEnd, next.ID, next.StartOrdinal)
		}

		return tx.Model(&models.Season{}).Where("id = ?", seasonID).
			Updates(map[string]any{"start_ordinal": newStart, "end_ordinal": newEnd}).Error
	})
}

// SetRequiredMonsterForRankUp replaces the burn-count tables
// (normal indexed E..A, shadow indexed B..A).
func (s *SeasonService) SetRequiredMonsterForRankUp(ctx context.Context, normal, shadow []uint64) error {
	if err := validateTable("normal required monsters", normal, rankUpTableLen); err != nil {
		return err
	}
	if err := validateTable("shadow required monsters", shadow, shadowRankUpTableLen); err != nil {
		return err
	}

	return s.Store.Write(ctx, "season.set_required_monster", func(tx *gorm.DB) error {
		cfg, err := loadSeasonConfig(tx)
		if err != nil {
			return err
		}
		cfg.NormalRequired = cloneTable(normal)
		cfg.ShadowRequired = cloneTable(shadow)
		cfg.Version++
		return tx.Save(cfg).Error
	})
}

func (s *SeasonService) GetRequiredMonsterForRankUp(ctx context.Context) (*models.SeasonConfig, error) {
	var cfg *models.SeasonConfig
	err := s.Store.Read(ctx, "season.get_required_monster", func(tx *gorm.DB) error {
		var err error
		cfg, err = loadSeasonConfig(tx)
		return err
	})
	return cfg, err
}

// RankUp burns monsters of the hunter's current rank to advance one rank.
// Either every burn, the rank change and the rank token mint commit, or nothing does.
func (s *SeasonService) RankUp(ctx context.Context, in RankUpInput) (*RankUpResult, error) {
	var result RankUpResult
	err := s.Store.Write(ctx, "season.rank_up", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadActiveSeason(tx, in.SeasonID, ordinal)
		if err != nil {
			return err
		}

		current, err := hunterRank(tx, season.ID, in.Hunter)
		if err != nil {
			return err
		}
		switch {
		case !in.TargetRank.Valid() || in.TargetRank >= models.RankS:
			return apperr.Newf(apperr.CodeInvalidRankType, "cannot rank up from %s", in.TargetRank)
		case in.TargetRank != current:
			return apperr.Newf(apperr.CodeInvalidRankType, "target %s does not match current rank %s", in.TargetRank, current)
		case in.IsShadow && in.TargetRank < models.ShadowFloor:
			return apperr.Newf(apperr.CodeInvalidRankType, "shadow rank-up needs rank %s or higher", models.ShadowFloor)
		}

		if len(in.MonsterIDs) == 0 || len(in.MonsterIDs) != len(in.Amounts) {
			return apperr.Newf(apperr.CodeInvalidMonster, "%d monster ids for %d amounts", len(in.MonsterIDs), len(in.Amounts))
		}

		// sum per id so repeated ids are checked against one balance
		perMonster := make(map[uint64]uint64, len(in.MonsterIDs))
		var order []uint64
		var total uint64
		for i, id := range in.MonsterIDs {
			m, err := loadMonster(tx, id)
			if err != nil {
				return err
			}
			if m.Rank != in.TargetRank || m.IsShadow != in.IsShadow {
				return apperr.Newf(apperr.CodeInvalidMonster, "monster %d is %s (shadow=%t)", id, m.Rank, m.IsShadow)
			}
			var carry uint64
			if total, carry = bits.Add64(total, in.Amounts[i], 0); carry != 0 {
				return apperr.New(apperr.CodeInvalidMonster, "amount overflow")
			}
			if _, seen := perMonster[id]; !seen {
				order = append(order, id)
			}
			perMonster[id] += in.Amounts[i]
		}

		cfg, err := loadSeasonConfig(tx)
		if err != nil {
			return err
		}
		var required uint64
		if in.IsShadow {
			required = cfg.ShadowRequired[in.TargetRank-models.ShadowFloor]
		} else {
			required = cfg.NormalRequired[in.TargetRank]
		}
		if total < required {
			return apperr.Newf(apperr.CodeInvalidMonster, "burning %d of %d required", total, required)
		}

		tier, err := loadTier(tx, in.IsShadow)
		if err != nil {
			return err
		}
		if tier.CollectionID == 0 {
			return apperr.Newf(apperr.CodeInvalidCollectionID, "%s monster collection not set", tier.Tier)
		}
		contract, err := collectionContract(tx, tier.CollectionID)
		if err != nil {
			return err
		}

		for _, id := range order {
			bal, err := s.Ledger.BalanceOf(tx, contract, in.Hunter, id)
			if err != nil {
				return err
			}
			if bal < perMonster[id] {
				return apperr.Newf(apperr.CodeInvalidMonster, "monster %d balance %d below %d", id, bal, perMonster[id])
			}
		}

		burns := make([]models.MonsterBurn, 0, len(order))
		for _, id := range order {
			if perMonster[id] == 0 {
				continue
			}
			if err := s.Ledger.Burn(tx, contract, in.Hunter, id, perMonster[id]); err != nil {
				return err
			}
			burns = append(burns, models.MonsterBurn{
				ID:         uuid.NewString(),
				SeasonID:   season.ID,
				Hunter:     in.Hunter.Hex(),
				MonsterID:  id,
				Amount:     perMonster[id],
				TargetRank: in.TargetRank,
				IsShadow:   in.IsShadow,
				Ordinal:    ordinal,
			})
		}
		if len(burns) > 0 {
			if err := tx.Create(&burns).Error; err != nil {
				return err
			}
		}

		next, err := advanceHunterRank(tx, s.Ledger, season, in.Hunter, current, ordinal)
		if err != nil {
			return err
		}

		result = RankUpResult{
			SeasonID:     season.ID,
			Hunter:       in.Hunter.Hex(),
			PreviousRank: current,
			NewRank:      next,
			Burns:        burns,
		}
		return appendEvent(tx, models.EventRankUp, season.ID, in.Hunter, ordinal, result)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("⬆️ [RANK_UP] %s season=%d %s -> %s", result.Hunter, result.SeasonID, result.PreviousRank, result.NewRank)
	return &result, nil
}

func (s *SeasonService) GetHunterRank(ctx context.Context, seasonID uint64, hunter common.Address) (models.Rank, error) {
	var rank models.Rank
	err := s.Store.Read(ctx, "season.get_hunter_rank", func(tx *gorm.DB) error {
		if _, err := loadSeason(tx, seasonID); err != nil {
			return err
		}
		var err error
		rank, err = hunterRank(tx, seasonID, hunter)
		return err
	})
	return rank, err
}

func (s *SeasonService) GetRankUpHistory(ctx context.Context, seasonID uint64, hunter common.Address) ([]models.MonsterBurn, error) {
	var burns []models.MonsterBurn
	err := s.Store.Read(ctx, "season.rank_up_history", func(tx *gorm.DB) error {
		if _, err := loadSeason(tx, seasonID); err != nil {
			return err
		}
		return tx.Where("season_id = ? AND hunter = ?", seasonID, hunter.Hex()).
			Order("ordinal ASC").Order("target_rank ASC").Order("monster_id ASC").
			Find(&burns).Error
	})
	return burns, err
}

// seasonPredicate evaluates check against a season and the current ordinal.
// Unknown seasons report false.
func (s *SeasonService) seasonPredicate(ctx context.Context, op string, seasonID uint64, check func(models.Season, uint64) bool) (bool, error) {
	var ok bool
	err := s.Store.Read(ctx, op, func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err := loadSeason(tx, seasonID)
		if apperr.CodeOf(err) == apperr.CodeInvalidSeasonID {
			return nil
		}
		if err != nil {
			return err
		}
		ok = check(*season, ordinal)
		return nil
	})
	return ok, err
}

func (s *SeasonService) IsExist(ctx context.Context, seasonID uint64) (bool, error) {
	return s.seasonPredicate(ctx, "season.is_exist", seasonID, func(models.Season, uint64) bool { return true })
}

func (s *SeasonService) IsCurrent(ctx context.Context, seasonID uint64) (bool, error) {
	return s.seasonPredicate(ctx, "season.is_current", seasonID, models.Season.IsCurrent)
}

func (s *SeasonService) IsEnded(ctx context.Context, seasonID uint64) (bool, error) {
	return s.seasonPredicate(ctx, "season.is_ended", seasonID, models.Season.IsEnded)
}

func (s *SeasonService) IsStart(ctx context.Context, seasonID uint64) (bool, error) {
	return s.seasonPredicate(ctx, "season.is_start", seasonID, models.Season.IsStarted)
}

// SeasonStatus is every lifecycle flag of one season at one ordinal.
type SeasonStatus struct {
	SeasonID uint64 `json:"id"`
	Ordinal  uint64 `json:"ordinal"`
	Exists   bool   `json:"exists"`
	Started  bool   `json:"started"`
	Current  bool   `json:"current"`
	Ended    bool   `json:"ended"`
}

// GetSeasonStatus evaluates all lifecycle flags in one read. Unknown seasons
// report Exists false and every other flag false.
func (s *SeasonService) GetSeasonStatus(ctx context.Context, seasonID uint64) (*SeasonStatus, error) {
	status := SeasonStatus{SeasonID: seasonID}
	err := s.Store.Read(ctx, "season.status", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		status.Ordinal = ordinal
		season, err := loadSeason(tx, seasonID)
		if apperr.CodeOf(err) == apperr.CodeInvalidSeasonID {
			return nil
		}
		if err != nil {
			return err
		}
		status.Exists = true
		status.Started = season.IsStarted(ordinal)
		status.Current = season.IsCurrent(ordinal)
		status.Ended = season.IsEnded(ordinal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *SeasonService) GetSeasonLength(ctx context.Context) (uint64, error) {
	var count int64
	err := s.Store.Read(ctx, "season.length", func(tx *gorm.DB) error {
		return tx.Model(&models.Season{}).Count(&count).Error
	})
	return uint64(count), err
}

func (s *SeasonService) GetSeasonByID(ctx context.Context, seasonID uint64) (*models.Season, error) {
	var season *models.Season
	err := s.Store.Read(ctx, "season.get", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err = loadSeason(tx, seasonID)
		if err != nil {
			return err
		}
		season.Phase = season.PhaseAt(ordinal)
		return nil
	})
	return season, err
}

// GetCurrentSeason returns the active season, failing InvalidSeasonId between seasons.
func (s *SeasonService) GetCurrentSeason(ctx context.Context) (*models.Season, error) {
	var season models.Season
	err := s.Store.Read(ctx, "season.current", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		err = tx.Where("start_ordinal <= ? AND end_ordinal > ?", ordinal, ordinal).First(&season).Error
		if isNotFound(err) {
			return apperr.Newf(apperr.CodeInvalidSeasonID, "no active season at block %d", ordinal)
		}
		if err != nil {
			return err
		}
		season.Phase = models.SeasonActive
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &season, nil
}

func (s *SeasonService) ListSeasons(ctx context.Context) ([]models.Season, error) {
	var seasons []models.Season
	err := s.Store.Read(ctx, "season.list", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		if err := tx.Order("id ASC").Find(&seasons).Error; err != nil {
			return err
		}
		for i := range seasons {
			seasons[i].Phase = seasons[i].PhaseAt(ordinal)
		}
		return nil
	})
	return seasons, err
}
