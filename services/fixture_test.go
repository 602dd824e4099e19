package services

import (
	"context"
	"testing"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	deployer = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	master   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	hunterA  = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	hunterB  = common.HexToAddress("0x0000000000000000000000000000000000000b02")
)

// Collection ids registered by setupCollections, in registration order.
const (
	colNormalMonsters uint64 = iota + 1
	colShadowMonsters
	colHunterRank
	colSeasonPack
	colSeasonScore
	colLegendary
	colBadge // non-fungible
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return NewStore(db)
}

type fixture struct {
	t   *testing.T
	ctx context.Context

	store       *Store
	ledger      *GormLedger
	ledgerSvc   *LedgerService
	clock       *ClockService
	collections *CollectionService
	monsters    *MonsterService
	seasons     *SeasonService
	gates       *GateService
	settlement  *SettlementService
	operators   *OperatorService
	events      *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	ledger := NewGormLedger()
	return &fixture{
		t:           t,
		ctx:         context.Background(),
		store:       store,
		ledger:      ledger,
		ledgerSvc:   NewLedgerService(store, ledger),
		clock:       NewClockService(store),
		collections: NewCollectionService(store, ledger),
		monsters:    NewMonsterService(store),
		seasons:     NewSeasonService(store, ledger),
		gates:       NewGateService(store, ledger),
		settlement:  NewSettlementService(store, ledger),
		operators:   NewOperatorService(store, master),
		events:      NewEventService(store),
	}
}

func (f *fixture) register(name string, kind models.TokenKind, collectable bool) *models.Collection {
	f.t.Helper()
	handle, err := f.ledgerSvc.DeployContract(f.ctx, kind, deployer)
	require.NoError(f.t, err)
	col, err := f.collections.Register(f.ctx, RegisterCollectionInput{
		Name:          name,
		TokenContract: handle,
		Creator:       deployer,
		Kind:          kind,
		Collectable:   collectable,
	})
	require.NoError(f.t, err)
	return col
}

// setupCollections registers the standard collection set and binds the monster tiers.
func (f *fixture) setupCollections() {
	f.t.Helper()
	f.register("Normal Monsters", models.TokenKindFungible, true)
	f.register("Shadow Monsters", models.TokenKindFungible, true)
	f.register("Hunter Rank", models.TokenKindFungible, false)
	f.register("Season Pack", models.TokenKindFungible, false)
	f.register("Season Score", models.TokenKindFungible, false)
	f.register("Legendary Scene", models.TokenKindFungible, false)
	f.register("Badge", models.TokenKindNonFungible, true)

	require.NoError(f.t, f.monsters.SetMonsterCollection(f.ctx, false, colNormalMonsters))
	require.NoError(f.t, f.monsters.SetMonsterCollection(f.ctx, true, colShadowMonsters))
}

func (f *fixture) advance(n uint64) uint64 {
	f.t.Helper()
	ordinal, err := f.clock.Advance(f.ctx, n)
	require.NoError(f.t, err)
	return ordinal
}

// addSeason adds a season starting offset blocks from now and lasting length blocks.
func (f *fixture) addSeason(offset, length uint64) *models.Season {
	f.t.Helper()
	now, err := f.clock.CurrentOrdinal(f.ctx)
	require.NoError(f.t, err)
	season, err := f.seasons.AddSeason(f.ctx, AddSeasonInput{
		HunterRankCollectionID: colHunterRank,
		SeasonPackCollectionID: colSeasonPack,
		StartOrdinal:           now + offset,
		EndOrdinal:             now + offset + length,
		CollectionIDs:          []uint64{colNormalMonsters, colShadowMonsters},
	})
	require.NoError(f.t, err)
	return season
}

// activeSeason adds a season and advances the clock into it.
func (f *fixture) activeSeason(length uint64) *models.Season {
	f.t.Helper()
	season := f.addSeason(1, length)
	f.advance(1)
	return season
}

func (f *fixture) mint(collectionID uint64, to common.Address, tokenID, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.ledgerSvc.MintTo(f.ctx, collectionID, to, tokenID, amount))
}

func (f *fixture) balance(collectionID uint64, holder common.Address, tokenID uint64) uint64 {
	f.t.Helper()
	amount, err := f.ledgerSvc.BalanceOf(f.ctx, collectionID, holder, tokenID)
	require.NoError(f.t, err)
	return amount
}

func (f *fixture) addMonster(rank models.Rank, isShadow bool) *models.Monster {
	f.t.Helper()
	m, err := f.monsters.AddMonster(f.ctx, "monster", rank, isShadow)
	require.NoError(f.t, err)
	return m
}

func requireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperr.CodeOf(err), "error: %v", err)
}
