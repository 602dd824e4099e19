package services

import (
	"testing"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollection(t *testing.T) {
	f := newFixture(t)

	first := f.register("Hunter Rank", models.TokenKindFungible, false)
	second := f.register("Season Pack", models.TokenKindFungible, false)

	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
	assert.True(t, first.Active)
	assert.Equal(t, "hunter-rank", first.Slug)
	assert.Equal(t, deployer.Hex(), first.Creator)

	_, err := f.collections.Register(f.ctx, RegisterCollectionInput{
		Name:          "Again",
		TokenContract: common.HexToAddress(first.TokenContract),
		Creator:       deployer,
		Kind:          models.TokenKindFungible,
	})
	requireCode(t, err, apperr.CodeAlreadyExistTokenContract)
}

func TestRegisterCollectionChecksContract(t *testing.T) {
	f := newFixture(t)

	nft, err := f.ledgerSvc.DeployContract(f.ctx, models.TokenKindNonFungible, deployer)
	require.NoError(t, err)

	tests := []struct {
		name   string
		handle common.Address
		kind   models.TokenKind
		want   apperr.Code
	}{
		{"kind mismatch", nft, models.TokenKindFungible, apperr.CodeInvalidTokenContract},
		{"not a contract", common.HexToAddress("0xbeef"), models.TokenKindFungible, apperr.CodeInvalidTokenContract},
		{"unknown kind", nft, models.TokenKind("erc20"), apperr.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.collections.Register(f.ctx, RegisterCollectionInput{
				Name: tt.name, TokenContract: tt.handle, Creator: deployer, Kind: tt.kind,
			})
			requireCode(t, err, tt.want)
		})
	}

	cols, err := f.collections.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestCollectionSetters(t *testing.T) {
	f := newFixture(t)
	col := f.register("Season Pack", models.TokenKindFungible, false)

	require.NoError(t, f.collections.SetActive(f.ctx, col.ID, false))
	active, err := f.collections.IsActive(f.ctx, col.ID)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, f.collections.SetCollectable(f.ctx, col.ID, true))
	require.NoError(t, f.collections.SetCreator(f.ctx, col.ID, hunterA))

	replacement, err := f.ledgerSvc.DeployContract(f.ctx, models.TokenKindFungible, deployer)
	require.NoError(t, err)
	require.NoError(t, f.collections.SetTokenContract(f.ctx, col.ID, replacement))

	got := mustCollection(t, f, col.ID)
	assert.True(t, got.Collectable)
	assert.Equal(t, hunterA.Hex(), got.Creator)
	assert.Equal(t, replacement.Hex(), got.TokenContract)

	kind, err := f.collections.GetKind(f.ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TokenKindFungible, kind)

	bySlug, err := f.collections.GetBySlug(f.ctx, "Season Pack")
	require.NoError(t, err)
	assert.Equal(t, col.ID, bySlug.ID)
}

func TestCollectionUnknownID(t *testing.T) {
	f := newFixture(t)

	requireCode(t, f.collections.SetActive(f.ctx, 9, true), apperr.CodeInvalidCollectionID)
	requireCode(t, f.collections.SetCreator(f.ctx, 9, hunterA), apperr.CodeInvalidCollectionID)
	requireCode(t, f.collections.SetTokenContract(f.ctx, 9, hunterA), apperr.CodeInvalidCollectionID)
	requireCode(t, f.collections.SetCollectable(f.ctx, 9, true), apperr.CodeInvalidCollectionID)

	_, err := f.collections.GetKind(f.ctx, 9)
	requireCode(t, err, apperr.CodeInvalidCollectionID)

	active, err := f.collections.IsActive(f.ctx, 9)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.collections.GetBySlug(f.ctx, "nothing")
	requireCode(t, err, apperr.CodeInvalidCollectionID)
}

func TestSetTokenContractRejectsTakenHandle(t *testing.T) {
	f := newFixture(t)
	a := f.register("A", models.TokenKindFungible, false)
	b := f.register("B", models.TokenKindFungible, false)

	err := f.collections.SetTokenContract(f.ctx, b.ID, common.HexToAddress(a.TokenContract))
	requireCode(t, err, apperr.CodeAlreadyExistTokenContract)

	// rebinding to its own handle is a no-op
	require.NoError(t, f.collections.SetTokenContract(f.ctx, a.ID, common.HexToAddress(a.TokenContract)))
}
