package services

import (
	"context"
	"strings"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type MonsterService struct {
	Store *Store
}

func NewMonsterService(store *Store) *MonsterService {
	return &MonsterService{Store: store}
}

func loadMonster(tx *gorm.DB, id uint64) (*models.Monster, error) {
	var m models.Monster
	err := tx.First(&m, "id = ?", id).Error
	if isNotFound(err) {
		return nil, apperr.Newf(apperr.CodeInvalidMonster, "monster %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// loadTier returns the stored tier config, or an empty one with zero scores.
func loadTier(tx *gorm.DB, isShadow bool) (*models.MonsterTier, error) {
	tier := models.MonsterTier{Tier: models.MonsterTierName(isShadow)}
	err := tx.First(&tier, "tier = ?", tier.Tier).Error
	if isNotFound(err) {
		size := normalScoreTableLen
		if isShadow {
			size = models.ShadowScoreCount
		}
		tier.Scores = make([]uint64, size)
		return &tier, nil
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func saveTier(tx *gorm.DB, tier *models.MonsterTier) error {
	tier.Version++
	return tx.Save(tier).Error
}

// AddMonster registers a monster. Shadow monsters only exist from rank B upwards.
func (s *MonsterService) AddMonster(ctx context.Context, name string, rank models.Rank, isShadow bool) (*models.Monster, error) {
	if !rank.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidRankType, "rank %d", rank)
	}
	if isShadow && rank < models.ShadowFloor {
		return nil, apperr.Newf(apperr.CodeInvalidRankType, "shadow monster rank %s below %s", rank, models.ShadowFloor)
	}

	var m models.Monster
	err := s.Store.Write(ctx, "monster.add", func(tx *gorm.DB) error {
		id, err := nextID(tx, &models.Monster{})
		if err != nil {
			return err
		}
		m = models.Monster{
			ID:       id,
			Name:     cases.Title(language.English).String(strings.TrimSpace(name)),
			Rank:     rank,
			IsShadow: isShadow,
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetScoreTable replaces the rank -> score weights of a tier (6 entries normal, 3 shadow).
func (s *MonsterService) SetScoreTable(ctx context.Context, isShadow bool, scores []uint64) error {
	want := normalScoreTableLen
	if isShadow {
		want = models.ShadowScoreCount
	}
	if err := validateTable(models.MonsterTierName(isShadow)+" score table", scores, want); err != nil {
		return err
	}

	return s.Store.Write(ctx, "monster.set_score_table", func(tx *gorm.DB) error {
		tier, err := loadTier(tx, isShadow)
		if err != nil {
			return err
		}
		tier.Scores = cloneTable(scores)
		return saveTier(tx, tier)
	})
}

// SetMonsterCollection binds the multi-token collection whose token ids are monster ids.
func (s *MonsterService) SetMonsterCollection(ctx context.Context, isShadow bool, collectionID uint64) error {
	return s.Store.Write(ctx, "monster.set_collection", func(tx *gorm.DB) error {
		if _, err := requireFungible(tx, collectionID, false); err != nil {
			return err
		}
		tier, err := loadTier(tx, isShadow)
		if err != nil {
			return err
		}
		tier.CollectionID = collectionID
		return saveTier(tx, tier)
	})
}

func (s *MonsterService) ScoreOf(ctx context.Context, monsterID uint64) (uint64, error) {
	var score uint64
	err := s.Store.Read(ctx, "monster.score_of", func(tx *gorm.DB) error {
		m, err := loadMonster(tx, monsterID)
		if err != nil {
			return err
		}
		tier, err := loadTier(tx, m.IsShadow)
		if err != nil {
			return err
		}
		score = tier.ScoreOf(m.Rank, m.IsShadow)
		return nil
	})
	return score, err
}

func (s *MonsterService) GetMonster(ctx context.Context, id uint64) (*models.Monster, error) {
	var m *models.Monster
	err := s.Store.Read(ctx, "monster.get", func(tx *gorm.DB) error {
		var err error
		m, err = loadMonster(tx, id)
		return err
	})
	return m, err
}

func (s *MonsterService) GetTier(ctx context.Context, isShadow bool) (*models.MonsterTier, error) {
	var tier *models.MonsterTier
	err := s.Store.Read(ctx, "monster.get_tier", func(tx *gorm.DB) error {
		var err error
		tier, err = loadTier(tx, isShadow)
		return err
	})
	return tier, err
}

// ListMonsters lists one tier, or every monster when isShadow is nil.
func (s *MonsterService) ListMonsters(ctx context.Context, isShadow *bool) ([]models.Monster, error) {
	var monsters []models.Monster
	err := s.Store.Read(ctx, "monster.list", func(tx *gorm.DB) error {
		q := tx.Order("id ASC")
		if isShadow != nil {
			q = q.Where("is_shadow = ?", *isShadow)
		}
		return q.Find(&monsters).Error
	})
	return monsters, err
}
