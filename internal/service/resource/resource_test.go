package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/store/memory"
	"marketplace/pkg/storage"
)

func TestSecretAttributesAreMasked(t *testing.T) {
	ctx := context.Background()
	f := memory.New().Factory()
	reg := registry.New()
	tb := processor.NewTestBackend()
	require.NoError(t, reg.Register(processor.TestBackendType, registry.Plugin{
		Create: tb, Update: tb, Delete: tb, SecretAttributes: []string{"password"},
	}))
	r := &model.Resource{
		OfferingID:   "offering-x",
		OfferingType: processor.TestBackendType,
		ProjectID:    "project-1",
		State:        model.ResourceOK,
		Attributes:   model.Attributes{"name": "vm", "password": "hunter2"},
	}
	require.NoError(t, f.Resources().Create(ctx, r))
	srv := NewResourceSrv(f, reg)

	got, err := srv.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "vm", got.Attributes["name"])
	assert.NotEqual(t, "hunter2", got.Attributes["password"])

	list, err := srv.List(ctx, &model.ResourceQuery{ProjectID: "project-1", ListQuery: storage.ListQuery{Pagination: storage.Pagination{PageSize: -1}}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEqual(t, "hunter2", list[0].Attributes["password"])

	stored, err := f.Resources().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", stored.Attributes["password"])

	_, err = srv.PlanPeriods(ctx, "missing")
	assert.True(t, errors.Is(err, code.ErrResourceNotFound))
}
