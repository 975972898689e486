package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"marketplace/config"
	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/processor"
)

func testConfig() *config.Config {
	return &config.Config{
		Processors: []config.Processor{
			{
				Type:            "Marketplace.Basic",
				Driver:          "basic",
				AvailableLimits: []string{"cpu"},
				CanUpdateLimits: true,
				Components: []config.Component{
					{Name: "cpu", MeasuredUnit: "core", BillingType: "LIMIT"},
				},
			},
			{Type: "Test.One", Driver: "test"},
			{Type: "Test.Two", Driver: "test"},
		},
		Catalog: config.Catalog{
			Customers: []config.Customer{{ID: "customer-1", Name: "provider"}},
			Offerings: []config.Offering{{
				ID:         "offering-1",
				Name:       "compute",
				Type:       "Marketplace.Basic",
				CustomerID: "customer-1",
				SecretCode: "secret",
				Plans:      []config.Plan{{ID: "plan-1", Name: "small"}},
			}},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := newRegistry(testConfig())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Marketplace.Basic", "Test.One", "Test.Two"}, reg.OfferingTypes())
	assert.True(t, reg.CanUpdateLimits("Marketplace.Basic"))
	require.Len(t, reg.Components("Marketplace.Basic"), 1)
	assert.Equal(t, model.BillingLimit, reg.Components("Marketplace.Basic")[0].BillingType)

	one, err := reg.Creator("Test.One")
	require.NoError(t, err)
	two, err := reg.Creator("Test.Two")
	require.NoError(t, err)
	assert.Same(t, one.(*processor.TestBackend), two.(*processor.TestBackend))
}

func TestNewRegistryRejectsBadDrivers(t *testing.T) {
	cfg := &config.Config{Processors: []config.Processor{{Type: "X", Driver: "unknown"}}}
	_, err := newRegistry(cfg)
	assert.ErrorIs(t, err, code.ErrConfiguration)

	cfg = &config.Config{Processors: []config.Processor{{Type: "X", Driver: "webhook"}}}
	_, err = newRegistry(cfg)
	assert.ErrorIs(t, err, code.ErrConfiguration)
}

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	f, closeFn, err := newStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()
	reg, err := newRegistry(cfg)
	require.NoError(t, err)

	require.NoError(t, seedCatalog(ctx, f, reg, cfg.Catalog))

	offering, err := f.Offerings().Get(ctx, "offering-1")
	require.NoError(t, err)
	assert.Equal(t, model.OfferingActive, offering.State)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(offering.SecretCode), []byte("secret")))
	plan, err := f.Plans().Get(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "offering-1", plan.OfferingID)

	cfg.Catalog.Offerings[0].Type = "Unregistered"
	err = seedCatalog(ctx, f, reg, cfg.Catalog)
	assert.ErrorIs(t, err, code.ErrProcessorNotFound)
}

func TestNewStoreUnknownDriver(t *testing.T) {
	_, _, err := newStore(context.Background(), &config.Config{Store: config.Store{Driver: "oracle"}})
	assert.ErrorIs(t, err, code.ErrConfiguration)
}
