package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

func testLayout(name string) *Layout {
	return &Layout{
		Name:     name,
		Strategy: regmap.BestFit,
		Bank:     regmap.DefaultBank(),
		Mappings: []regmap.Mapping{
			{Name: "enable", Type: datatypes.Boolean, Register: 6, Slice: regmap.BitSlice{MSB: 31, LSB: 31}},
		},
	}
}

func TestMemoryStoreUpsertByName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := testLayout("ds1140")
	require.NoError(t, s.SaveOrUpdateLayout(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	second := testLayout("ds1140")
	second.Version = "2.0"
	require.NoError(t, s.SaveOrUpdateLayout(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := s.GetLayoutByName(ctx, "ds1140")
	require.NoError(t, err)
	assert.Equal(t, "2.0", got.Version)

	list, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Fields)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetLayout(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLayoutByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteLayout(ctx, uuid.New()), ErrNotFound)
	assert.ErrorIs(t, s.RecordDeployment(ctx, &Deployment{LayoutID: uuid.New()}), ErrNotFound)
}

func TestMemoryStoreDeployments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := testLayout("bench")
	require.NoError(t, s.SaveOrUpdateLayout(ctx, l))

	for i := 0; i < 3; i++ {
		d := &Deployment{LayoutID: l.ID, TargetAddress: "10.0.0.5:502", Registers: map[int]uint32{6: uint32(i)}, Status: DeploymentCompleted}
		require.NoError(t, s.RecordDeployment(ctx, d))
		assert.NotEqual(t, uuid.Nil, d.ID)
	}

	got, err := s.ListDeployments(ctx, l.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(2), got[0].Registers[6], "newest first")

	require.NoError(t, s.DeleteLayout(ctx, l.ID))
	got, err = s.ListDeployments(ctx, l.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLayoutReport(t *testing.T) {
	rep := testLayout("x").Report()
	assert.Equal(t, 1, rep.TotalBitsUsed)
	assert.Equal(t, 384, rep.TotalBitsAvailable)
}
