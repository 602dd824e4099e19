package services

import (
	"context"
	"errors"
	"testing"

	"hunter-season-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStoreWriteRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("ledger unavailable")
	err := store.Write(ctx, "test.rollback", func(tx *gorm.DB) error {
		if err := saveOrdinal(tx, 42); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var ordinal uint64
	require.NoError(t, store.Read(ctx, "test.read", func(tx *gorm.DB) error {
		var err error
		ordinal, err = currentOrdinal(tx)
		return err
	}))
	assert.Zero(t, ordinal)
}

func TestNextIDStartsAtOne(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write(context.Background(), "test.next_id", func(tx *gorm.DB) error {
		id, err := nextID(tx, &models.Gate{})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)

		require.NoError(t, tx.Create(&models.Gate{ID: id, Hunter: hunterA.Hex()}).Error)

		id, err = nextID(tx, &models.Gate{})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), id)
		return nil
	}))
}

func TestClockAdvanceAndSync(t *testing.T) {
	f := newFixture(t)

	ordinal, err := f.clock.CurrentOrdinal(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, ordinal)

	assert.Equal(t, uint64(5), f.advance(5))
	assert.Equal(t, uint64(6), f.advance(1))

	ordinal, moved, err := f.clock.Sync(f.ctx, 100)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, uint64(100), ordinal)

	// lower heights never move the clock back
	ordinal, moved, err = f.clock.Sync(f.ctx, 50)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, uint64(100), ordinal)

	ordinal, err = f.clock.CurrentOrdinal(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), ordinal)
}
