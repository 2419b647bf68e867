package store

import (
	"context"
	"database/sql"
	"fmt"

	"carshop/internal/models"
)

// ListCars returns the full catalog ordered by creation time.
func (s *SQLStore) ListCars(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	err := s.db.SelectContext(ctx, &cars,
		"SELECT * FROM cars ORDER BY created_at, id")
	if err != nil {
		return nil, mapError(err)
	}
	return cars, nil
}

// GetCar retrieves a car by ID
func (s *SQLStore) GetCar(ctx context.Context, id string) (*models.Car, error) {
	var car models.Car
	err := s.db.GetContext(ctx, &car, "SELECT * FROM cars WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("car %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &car, nil
}

// CreateCar inserts a new catalog item
func (s *SQLStore) CreateCar(ctx context.Context, car *models.Car) error {
	query := `
		INSERT INTO cars (id, make, model, year, price, image, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	err := s.db.GetContext(ctx, &car.CreatedAt, query,
		car.ID, car.Make, car.Model, car.Year, car.Price, car.Image, car.Description)
	return mapError(err)
}
