package workers

import (
	"context"
	"log"
	"time"

	"hunter-season-system/services"
)

// SeasonArchiveWorker exports every ended season's score report once.
type SeasonArchiveWorker struct {
	archive  *services.ArchiveService
	interval time.Duration
}

func NewSeasonArchiveWorker(archive *services.ArchiveService, interval time.Duration) *SeasonArchiveWorker {
	return &SeasonArchiveWorker{archive: archive, interval: interval}
}

func (w *SeasonArchiveWorker) Start(ctx context.Context) {
	log.Println("📦 Starting Season Archive Worker…")
	go w.run(ctx)
}

func (w *SeasonArchiveWorker) run(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		log.Printf("⚠️ [ARCHIVE] Initial pass failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				log.Printf("❌ [ARCHIVE] Pass failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Season Archive Worker stopped")
			return
		}
	}
}

// RunOnce archives all pending seasons and returns how many were archived.
// A failing season is logged and retried on the next pass.
func (w *SeasonArchiveWorker) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.archive.PendingSeasons(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	log.Printf("[ARCHIVE] 📥 %d ended season(s) to export", len(pending))

	archived := 0
	for _, season := range pending {
		if _, err := w.archive.ArchiveSeason(ctx, season.ID); err != nil {
			log.Printf("[ARCHIVE] ❌ season %d: %v", season.ID, err)
			continue
		}
		archived++
	}
	return archived, nil
}
