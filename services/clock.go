package services

import (
	"context"
	"log"
	"time"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const clockRowID = 1

// currentOrdinal reads the clock inside tx. A fresh database starts at 0.
func currentOrdinal(tx *gorm.DB) (uint64, error) {
	var c models.ChainClock
	err := tx.First(&c, clockRowID).Error
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Ordinal, nil
}

func saveOrdinal(tx *gorm.DB, ordinal uint64) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"ordinal", "updated_at"}),
	}).Create(&models.ChainClock{ID: clockRowID, Ordinal: ordinal}).Error
}

// ClockService owns the block-number ordinal every lifecycle check keys off.
type ClockService struct {
	Store *Store
}

func NewClockService(store *Store) *ClockService {
	return &ClockService{Store: store}
}

func (s *ClockService) CurrentOrdinal(ctx context.Context) (uint64, error) {
	var ordinal uint64
	err := s.Store.Read(ctx, "clock.current", func(tx *gorm.DB) error {
		var err error
		ordinal, err = currentOrdinal(tx)
		return err
	})
	return ordinal, err
}

// Advance moves the clock forward by n blocks and returns the new ordinal.
func (s *ClockService) Advance(ctx context.Context, n uint64) (uint64, error) {
	var ordinal uint64
	err := s.Store.Write(ctx, "clock.advance", func(tx *gorm.DB) error {
		cur, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		if cur+n < cur {
			return apperr.New(apperr.CodeInvalidBlockNumber, "ordinal overflow")
		}
		ordinal = cur + n
		return saveOrdinal(tx, ordinal)
	})
	return ordinal, err
}

// Sync moves the clock to height when it is ahead of the stored ordinal.
// Lower heights are ignored so the clock never runs backwards.
func (s *ClockService) Sync(ctx context.Context, height uint64) (ordinal uint64, moved bool, err error) {
	err = s.Store.Write(ctx, "clock.sync", func(tx *gorm.DB) error {
		cur, err := currentOrdinal(tx)
		if err != nil {
			return err
		}
		if height <= cur {
			ordinal = cur
			return nil
		}
		ordinal, moved = height, true
		return saveOrdinal(tx, height)
	})
	return ordinal, moved, err
}

// StartBlockTicker advances the clock by one block every interval.
// The caller owns the returned scheduler and should shut it down.
func (s *ClockService) StartBlockTicker(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ordinal, err := s.Advance(context.Background(), 1)
			if err != nil {
				log.Printf("[CLOCK] advance failed: %v", err)
				return
			}
			if ordinal%100 == 0 {
				log.Printf("⛓️ [CLOCK] ordinal %d", ordinal)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
