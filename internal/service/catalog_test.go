package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"carshop/internal/models"
	"carshop/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache is an in-process CatalogCache for exercising the cache path
// without a Redis instance.
type fakeCache struct {
	cars    []models.Car
	warm    bool
	failing bool

	gets        int
	sets        int
	invalidates int
}

func (f *fakeCache) GetCatalog(_ context.Context) ([]models.Car, bool, error) {
	f.gets++
	if f.failing {
		return nil, false, errors.New("cache down")
	}
	if !f.warm {
		return nil, false, nil
	}
	return f.cars, true, nil
}

func (f *fakeCache) SetCatalog(_ context.Context, cars []models.Car, _ time.Duration) error {
	f.sets++
	if f.failing {
		return errors.New("cache down")
	}
	f.cars = cars
	f.warm = true
	return nil
}

func (f *fakeCache) InvalidateCatalog(_ context.Context) error {
	f.invalidates++
	f.cars = nil
	f.warm = false
	return nil
}

func validInput() CreateCarInput {
	return CreateCarInput{
		Make:  "Mazda",
		Model: "MX-5",
		Year:  2021,
		Price: decimal.NewFromInt(28000),
		Image: "https://cdn.example.com/mx5.jpg",
	}
}

func TestCreateCarValidation(t *testing.T) {
	svc := NewCatalogService(store.NewMemory(), nil, time.Minute)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateCarInput)
	}{
		{"missing make", func(in *CreateCarInput) { in.Make = " " }},
		{"missing model", func(in *CreateCarInput) { in.Model = "" }},
		{"zero year", func(in *CreateCarInput) { in.Year = 0 }},
		{"zero price", func(in *CreateCarInput) { in.Price = decimal.Zero }},
		{"negative price", func(in *CreateCarInput) { in.Price = decimal.NewFromInt(-1) }},
		{"missing image", func(in *CreateCarInput) { in.Image = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(ctx, input)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCreateCarPersistsAndAppearsInListing(t *testing.T) {
	mem := store.NewMemory()
	svc := NewCatalogService(mem, nil, time.Minute)
	ctx := context.Background()

	car, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, car.ID)

	cars, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, car.ID, cars[0].ID)
}

func TestListWarmsAndServesCache(t *testing.T) {
	mem := store.NewMemory()
	cache := &fakeCache{}
	svc := NewCatalogService(mem, cache, time.Minute)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets, "a miss warms the cache")

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, cache.sets, "a hit must not rewrite the cache")
	assert.Equal(t, 2, cache.gets)
}

func TestCreateInvalidatesCache(t *testing.T) {
	mem := store.NewMemory()
	cache := &fakeCache{}
	svc := NewCatalogService(mem, cache, time.Minute)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidates)

	cars, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, 2, "listing after invalidation reflects the new item")
}

func TestListFallsBackToStoreWhenCacheFails(t *testing.T) {
	mem := store.NewMemory()
	svc := NewCatalogService(mem, &fakeCache{failing: true}, time.Minute)
	ctx := context.Background()

	require.NoError(t, mem.CreateCar(ctx, &models.Car{
		ID:    "car-1",
		Make:  "Ford",
		Model: "Focus",
		Year:  2018,
		Price: decimal.NewFromInt(15000),
		Image: "https://cdn.example.com/focus.jpg",
	}))

	cars, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, 1, "cache failures degrade to a database read")
}
