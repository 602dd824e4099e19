package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hunter-season-system/middleware"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	master     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	operator   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	controller = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	hunterA    = common.HexToAddress("0x0000000000000000000000000000000000000a01")
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	store := services.NewStore(db)
	ledger := services.NewGormLedger()
	settlement := services.NewSettlementService(store, ledger)

	app := fiber.New()
	SetupRoutes(app, Services{
		Clock:       services.NewClockService(store),
		Ledger:      services.NewLedgerService(store, ledger),
		Collections: services.NewCollectionService(store, ledger),
		Monsters:    services.NewMonsterService(store),
		Seasons:     services.NewSeasonService(store, ledger),
		Gates:       services.NewGateService(store, ledger),
		Settlement:  settlement,
		Operators:   services.NewOperatorService(store, master),
		Events:      services.NewEventService(store),
		Archives:    services.NewArchiveService(store, settlement, nil),
	})
	return app
}

type apiResponse struct {
	status int
	body   []byte
}

func (r apiResponse) decode(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, out), string(r.body))
}

func call(t *testing.T, app *fiber.App, method, path string, caller *common.Address, body string) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		req.Header.Set(middleware.AccountHeader, caller.Hex())
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{status: resp.StatusCode, body: raw}
}

func errorCode(t *testing.T, r apiResponse) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	r.decode(t, &body)
	return body.Error
}

// grantRoles makes operator and controller usable by later calls.
func grantRoles(t *testing.T, app *fiber.App) {
	t.Helper()
	for _, grant := range []struct {
		addr common.Address
		role models.Role
	}{{operator, models.RoleOperator}, {controller, models.RoleController}} {
		body := `{"address":"` + grant.addr.Hex() + `","role":"` + string(grant.role) + `"}`
		resp := call(t, app, http.MethodPost, "/master/operators", &master, body)
		require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	}
}

func deployAndRegister(t *testing.T, app *fiber.App, name string) uint64 {
	t.Helper()

	resp := call(t, app, http.MethodPost, "/controller/ledger/contracts", &controller, `{"kind":"fungible"}`)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var deployed struct {
		TokenContract string `json:"token_contract"`
	}
	resp.decode(t, &deployed)

	body := `{"name":"` + name + `","token_contract":"` + deployed.TokenContract + `","creator":"` + operator.Hex() + `","kind":"fungible"}`
	resp = call(t, app, http.MethodPost, "/admin/collections", &operator, body)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var col models.Collection
	resp.decode(t, &col)
	return col.ID
}

func TestRoleGates(t *testing.T) {
	app := newTestApp(t)
	grantRoles(t, app)

	tests := []struct {
		name   string
		method string
		path   string
		caller *common.Address
		body   string
		status int
		code   string
	}{
		{"hunter route without header", http.MethodGet, "/hunter/seasons/0/rank", nil, "", http.StatusUnauthorized, ""},
		{"operator cannot grant roles", http.MethodPost, "/master/operators", &operator, `{"address":"` + hunterA.Hex() + `","role":"operator"}`, http.StatusForbidden, "OnlyOperatorMaster"},
		{"hunter cannot add seasons", http.MethodPost, "/admin/seasons", &hunterA, `{}`, http.StatusForbidden, "OnlyOperator"},
		{"operator is not a controller", http.MethodPost, "/controller/clock/advance", &operator, `{"blocks":1}`, http.StatusForbidden, "OnlyController"},
		{"duplicate grant", http.MethodPost, "/master/operators", &master, `{"address":"` + operator.Hex() + `","role":"operator"}`, http.StatusConflict, "DuplicateAccount"},
		{"unknown season", http.MethodGet, "/seasons/7", nil, "", http.StatusNotFound, "InvalidSeasonId"},
		{"bad season id", http.MethodGet, "/seasons/x", nil, "", http.StatusBadRequest, "InvalidArgument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, app, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.status, resp.status, string(resp.body))
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, resp))
			}
		})
	}
}

func TestSeasonGateFlow(t *testing.T) {
	app := newTestApp(t)
	grantRoles(t, app)

	rankCol := deployAndRegister(t, app, "Hunter Rank")
	packCol := deployAndRegister(t, app, "Season Pack")

	resp := call(t, app, http.MethodPost, "/admin/seasons", &operator,
		`{"hunter_rank_collection_id":`+itoa(rankCol)+`,"season_pack_collection_id":`+itoa(packCol)+`,"start_block":10,"end_block":500}`)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var season models.Season
	resp.decode(t, &season)
	assert.Equal(t, uint64(0), season.ID)
	assert.Equal(t, models.SeasonScheduled, season.Phase)

	// entering before the season starts fails
	resp = call(t, app, http.MethodPost, "/hunter/seasons/0/gates", &hunterA, `{"gate_rank":"E"}`)
	assert.Equal(t, "InvalidSeasonId", errorCode(t, resp))

	resp = call(t, app, http.MethodPost, "/controller/clock/advance", &controller, `{"blocks":10}`)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = call(t, app, http.MethodGet, "/seasons/0/status", nil, "")
	var status map[string]any
	resp.decode(t, &status)
	assert.Equal(t, true, status["exists"])
	assert.Equal(t, true, status["started"])
	assert.Equal(t, true, status["current"])
	assert.Equal(t, false, status["ended"])
	assert.Equal(t, float64(10), status["ordinal"])

	resp = call(t, app, http.MethodPost, "/controller/ledger/mint", &controller,
		`{"collection_id":`+itoa(packCol)+`,"to":"`+hunterA.Hex()+`","token_id":0,"amount":2}`)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = call(t, app, http.MethodPost, "/hunter/seasons/0/gates", &hunterA, `{"gate_rank":"E"}`)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var entered services.EnterResult
	resp.decode(t, &entered)
	assert.Equal(t, models.RankE, entered.Gate.GateRank)
	assert.False(t, entered.IsRankUp)
	assert.Equal(t, uint64(10), entered.Gate.StartOrdinal)

	// E-rank hunters have a single slot
	resp = call(t, app, http.MethodPost, "/hunter/seasons/0/gates", &hunterA, `{"gate_rank":"E"}`)
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "SlotExceeded", errorCode(t, resp))

	resp = call(t, app, http.MethodPost, "/hunter/seasons/0/gates", &hunterA, `{"gate_rank":"D"}`)
	assert.Equal(t, "InvalidRankType", errorCode(t, resp))

	resp = call(t, app, http.MethodGet, "/hunter/seasons/0/slot", &hunterA, "")
	var slot struct {
		UsingSlot uint64 `json:"using_slot"`
	}
	resp.decode(t, &slot)
	assert.Equal(t, uint64(1), slot.UsingSlot)

	resp = call(t, app, http.MethodGet, "/collections/"+itoa(packCol)+"/balances/"+hunterA.Hex()+"/0", nil, "")
	var balance struct {
		Balance uint64 `json:"balance"`
	}
	resp.decode(t, &balance)
	assert.Equal(t, uint64(1), balance.Balance)

	resp = call(t, app, http.MethodGet, "/hunter/events?kind=gate_entered", &hunterA, "")
	var events []models.EventRecord
	resp.decode(t, &events)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventGateEntered, events[0].Kind)
}

func TestSettlementConfigRoutes(t *testing.T) {
	app := newTestApp(t)
	grantRoles(t, app)

	resp := call(t, app, http.MethodPut, "/admin/settlement/rate", &operator, `{"quest":60000,"activity":30000,"collecting":20000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)
	assert.Equal(t, "InvalidRate", errorCode(t, resp))

	resp = call(t, app, http.MethodPut, "/admin/settlement/rate", &operator, `{"quest":40000,"activity":40000,"collecting":20000}`)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = call(t, app, http.MethodGet, "/settlement/rate", nil, "")
	var rate services.ScoreRate
	resp.decode(t, &rate)
	assert.Equal(t, services.ScoreRate{Quest: 40000, Activity: 40000, Collecting: 20000, Denominator: models.RateDenominator}, rate)

	resp = call(t, app, http.MethodPut, "/admin/gates/slots", &operator, `{"values":[1,2,3]}`)
	assert.Equal(t, "InvalidArgument", errorCode(t, resp))

	resp = call(t, app, http.MethodPut, "/admin/gates/slots", &operator, `{"values":[2,2,3,3,4,4]}`)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = call(t, app, http.MethodGet, "/gates/config", nil, "")
	var cfg models.GateConfig
	resp.decode(t, &cfg)
	assert.Equal(t, []uint64{2, 2, 3, 3, 4, 4}, cfg.SlotPerRank)
}

func TestArchiveWithoutStorage(t *testing.T) {
	app := newTestApp(t)
	grantRoles(t, app)

	resp := call(t, app, http.MethodGet, "/archives", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	var archives []models.SeasonArchive
	resp.decode(t, &archives)
	assert.Empty(t, archives)

	resp = call(t, app, http.MethodPost, "/admin/archives/0", &operator, "")
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func itoa(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
