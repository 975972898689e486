package authenticate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/store/memory"
)

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := memory.New().Factory()
	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	open := &model.Offering{Name: "vm", Type: "Test.Backend", State: model.OfferingActive, SecretCode: hash}
	closed := &model.Offering{Name: "closed", Type: "Test.Backend", State: model.OfferingActive}
	require.NoError(t, f.Offerings().Save(ctx, open))
	require.NoError(t, f.Offerings().Save(ctx, closed))

	r := &model.Resource{OfferingID: open.ID, OfferingType: open.Type, ProjectID: "p", State: model.ResourceOK}
	require.NoError(t, f.Resources().Create(ctx, r))
	o := &model.Order{Type: model.OrderUpdate, ResourceID: r.ID, OfferingID: open.ID, ProjectID: "p", State: model.OrderExecuting}
	require.NoError(t, f.Orders().Create(ctx, o))
	other := &model.Resource{OfferingID: closed.ID, OfferingType: closed.Type, ProjectID: "p", State: model.ResourceOK}
	require.NoError(t, f.Resources().Create(ctx, other))

	srv := NewAuthenticateSrv(f)
	assert.NoError(t, srv.AuthenticateOrder(ctx, o.ID, "s3cret"))
	assert.NoError(t, srv.AuthenticateResource(ctx, r.ID, "s3cret"))
	assert.True(t, errors.Is(srv.AuthenticateOrder(ctx, o.ID, "wrong"), code.ErrInvalidSecret))
	assert.True(t, errors.Is(srv.AuthenticateOrder(ctx, o.ID, ""), code.ErrInvalidSecret))
	assert.True(t, errors.Is(srv.AuthenticateResource(ctx, other.ID, ""), code.ErrInvalidSecret))
	assert.True(t, errors.Is(srv.AuthenticateOrder(ctx, "missing", "s3cret"), code.ErrOrderNotFound))
}
