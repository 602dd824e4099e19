package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Uploader stores an exported object and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// SeasonReportDocument is the archived JSON body for one ended season.
type SeasonReportDocument struct {
	Season     models.Season `json:"season"`
	Hunters    []HunterScore `json:"hunters"`
	ExportedAt time.Time     `json:"exported_at"`
}

type ArchiveService struct {
	Store      *Store
	Settlement *SettlementService
	Uploader   Uploader
}

func NewArchiveService(store *Store, settlement *SettlementService, uploader Uploader) *ArchiveService {
	return &ArchiveService{Store: store, Settlement: settlement, Uploader: uploader}
}

func archiveKey(seasonID uint64) string {
	return fmt.Sprintf("season-archives/season-%d.json", seasonID)
}

// PendingSeasons lists ended seasons without an archive record.
func (s *ArchiveService) PendingSeasons(ctx context.Context) ([]models.Season, error) {
	var seasons []models.Season
	err := s.Store.Read(ctx, "archive.pending", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		var archived []uint64
		if err := tx.Model(&models.SeasonArchive{}).Pluck("season_id", &archived).Error; err != nil {
			return err
		}
		q := tx.Where("end_ordinal <= ?", ordinal)
		if len(archived) > 0 {
			q = q.Where("id NOT IN ?", archived)
		}
		return q.Order("id ASC").Find(&seasons).Error
	})
	return seasons, err
}

// ArchiveSeason exports an ended season's score report and records where it went.
func (s *ArchiveService) ArchiveSeason(ctx context.Context, seasonID uint64) (*models.SeasonArchive, error) {
	if s.Uploader == nil {
		return nil, apperr.New(apperr.CodeInvalidArgument, "archive storage is not configured")
	}

	var season *models.Season
	err := s.Store.Read(ctx, "archive.load_season", func(tx *gorm.DB) error {
		ordinal, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		season, err = loadSeason(tx, seasonID)
		if err != nil {
			return err
		}
		if !season.IsEnded(ordinal) {
			return apperr.Newf(apperr.CodeInvalidSeasonID, "season %d has not ended", seasonID)
		}
		season.Phase = models.SeasonEnded
		return nil
	})
	if err != nil {
		return nil, err
	}

	report, err := s.Settlement.SeasonReport(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		report = []HunterScore{}
	}

	body, err := json.Marshal(SeasonReportDocument{Season: *season, Hunters: report, ExportedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode season %d report: %w", seasonID, err)
	}

	key := archiveKey(seasonID)
	url, err := s.Uploader.Upload(ctx, key, "application/json", body)
	if err != nil {
		return nil, err
	}

	archive := models.SeasonArchive{SeasonID: seasonID, ObjectKey: key, URL: url, Hunters: len(report)}
	err = s.Store.Write(ctx, "archive.record", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "season_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"object_key", "url", "hunters", "archived_at"}),
		}).Create(&archive).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📦 [ARCHIVE] season %d: %d hunter(s) -> %s", seasonID, len(report), url)
	return &archive, nil
}

func (s *ArchiveService) ListArchives(ctx context.Context) ([]models.SeasonArchive, error) {
	var archives []models.SeasonArchive
	err := s.Store.Read(ctx, "archive.list", func(tx *gorm.DB) error {
		return tx.Order("season_id ASC").Find(&archives).Error
	})
	return archives, err
}
