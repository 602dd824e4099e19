package services

import (
	"slices"

	"hunter-season-system/apperr"
	"hunter-season-system/models"
)

// Per-rank table lengths. Rank-up tables stop at A since S cannot rank up.
const (
	rankUpTableLen       = models.RankCount - 1
	shadowRankUpTableLen = int(models.RankS - models.ShadowFloor)
	normalScoreTableLen  = models.RankCount
)

// Defaults used until an operator (or the rank-table file) replaces a table.
var (
	DefaultNormalRequired    = []uint64{10, 20, 30, 40, 50}
	DefaultShadowRequired    = []uint64{5, 5}
	DefaultSlotPerRank       = []uint64{1, 2, 2, 3, 3, 4}
	DefaultRequiredGateCount = []uint64{5, 5, 5, 5, 5}
	DefaultGateBlockPerRank  = []uint64{100, 200, 300, 400, 500, 600}
	DefaultQuestRate         = uint64(50_000)
	DefaultActivityRate      = uint64(30_000)
	DefaultCollectingRate    = uint64(20_000)
	DefaultScorePerGate      = uint64(100)
)

func validateTable(name string, values []uint64, want int) error {
	if len(values) != want {
		return apperr.Newf(apperr.CodeInvalidArgument, "%s needs %d entries, got %d", name, want, len(values))
	}
	return nil
}

func cloneTable(values []uint64) []uint64 {
	return slices.Clone(values)
}
