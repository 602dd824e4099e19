package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// appendEvent records a domain event inside the mutating transaction. Seq is
// assigned under the store's write lock, so it is gap free and strictly
// increasing in commit order.
func appendEvent(tx *gorm.DB, kind models.EventKind, seasonID uint64, hunter common.Address, ordinal uint64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}
	seq, err := latestEventSeq(tx)
	if err != nil {
		return err
	}
	rec := models.EventRecord{
		ID:       uuid.NewString(),
		Seq:      seq + 1,
		Kind:     kind,
		SeasonID: seasonID,
		Ordinal:  ordinal,
		Payload:  string(body),
	}
	if hunter != (common.Address{}) {
		rec.Hunter = hunter.Hex()
	}
	return tx.Create(&rec).Error
}

func latestEventSeq(tx *gorm.DB) (uint64, error) {
	var seq uint64
	err := tx.Model(&models.EventRecord{}).Select("COALESCE(MAX(seq), 0)").Scan(&seq).Error
	return seq, err
}

type EventService struct {
	Store *Store

	// PollInterval is how often the stream looks for new events.
	PollInterval time.Duration
}

func NewEventService(store *Store) *EventService {
	return &EventService{Store: store, PollInterval: 2 * time.Second}
}

type EventFilter struct {
	Hunter   *common.Address
	SeasonID *uint64
	Kind     models.EventKind
	After    time.Time
	// AfterSeq resumes a listing after the last seen Seq. Unlike After it
	// never skips events that share a timestamp.
	AfterSeq uint64
	Limit    int
}

// LatestSeq returns the highest recorded event Seq, 0 when the log is empty.
func (s *EventService) LatestSeq(ctx context.Context) (uint64, error) {
	var seq uint64
	err := s.Store.Read(ctx, "event.latest_seq", func(tx *gorm.DB) error {
		var err error
		seq, err = latestEventSeq(tx)
		return err
	})
	return seq, err
}

func (s *EventService) ListEvents(ctx context.Context, f EventFilter) ([]models.EventRecord, error) {
	var events []models.EventRecord
	err := s.Store.Read(ctx, "event.list", func(tx *gorm.DB) error {
		q := tx.Order("seq ASC")
		if f.Hunter != nil {
			q = q.Where("hunter = ?", f.Hunter.Hex())
		}
		if f.SeasonID != nil {
			q = q.Where("season_id = ?", *f.SeasonID)
		}
		if f.Kind != "" {
			q = q.Where("kind = ?", f.Kind)
		}
		if !f.After.IsZero() {
			q = q.Where("created_at > ?", f.After)
		}
		if f.AfterSeq > 0 {
			q = q.Where("seq > ?", f.AfterSeq)
		}
		if f.Limit > 0 {
			q = q.Limit(f.Limit)
		}
		return q.Find(&events).Error
	})
	return events, err
}

// StreamHunterEventsSSE streams the calling hunter's events as they are recorded.
func (s *EventService) StreamHunterEventsSSE(c *fiber.Ctx) error {
	hunter := c.Locals("account").(common.Address)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// only events after the stream opened
	cursor, err := s.LatestSeq(c.UserContext())
	if err != nil {
		return err
	}

	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(s.PollInterval)
		defer ticker.Stop()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				events, err := s.ListEvents(context.Background(), EventFilter{Hunter: &hunter, AfterSeq: cursor, Limit: 100})
				if err != nil {
					log.Printf("[EVENTS] SSE query error for %s: %v", hunter.Hex(), err)
					continue
				}
				if len(events) == 0 {
					continue
				}
				cursor = events[len(events)-1].Seq

				for _, e := range events {
					payload, _ := json.Marshal(e)
					fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Kind, payload)
				}

				if err := w.Flush(); err != nil {
					return
				}

			case <-done:
				return
			}
		}
	})

	return nil
}
