package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/store"
	"marketplace/internal/store/memory"
)

func TestCatalogReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := memory.New().Factory()
	f := New(inner, time.Minute)

	o := &model.Offering{Name: "vm", Type: "TestBackend", State: model.OfferingActive}
	o.ID = "offering-x"
	require.NoError(t, f.Offerings().Save(ctx, o))

	got, err := f.Offerings().Get(ctx, "offering-x")
	require.NoError(t, err)
	assert.Equal(t, model.OfferingActive, got.State)

	// changed behind the cache
	o.State = model.OfferingPaused
	require.NoError(t, inner.Offerings().Save(ctx, o))
	got, err = f.Offerings().Get(ctx, "offering-x")
	require.NoError(t, err)
	assert.Equal(t, model.OfferingActive, got.State)

	// callers get copies
	got.State = model.OfferingArchived
	again, err := f.Offerings().Get(ctx, "offering-x")
	require.NoError(t, err)
	assert.Equal(t, model.OfferingActive, again.State)

	require.NoError(t, f.Transaction(ctx, func(tx store.Factory) error {
		return tx.Offerings().Save(ctx, o)
	}))
	got, err = f.Offerings().Get(ctx, "offering-x")
	require.NoError(t, err)
	assert.Equal(t, model.OfferingPaused, got.State)
}

func TestCatalogMissIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := New(memory.New().Factory(), time.Minute)

	_, err := f.Plans().Get(ctx, "p1")
	assert.True(t, errors.Is(err, code.ErrPlanNotFound))

	p := &model.Plan{OfferingID: "offering-x", Name: "small"}
	p.ID = "p1"
	require.NoError(t, f.Plans().Save(ctx, p))
	got, err := f.Plans().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "small", got.Name)
}
