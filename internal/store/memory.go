package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"carshop/internal/models"

	"github.com/shopspring/decimal"
)

// Memory is an in-memory Store used by tests and local development.
// A single mutex serializes every operation, which gives the same
// atomic read-modify-write guarantee the Postgres row lock provides.
type Memory struct {
	mu        sync.Mutex
	accounts  map[string]*models.Account
	cars      map[string]*models.Car
	purchases map[string]*models.Purchase
	topups    map[string]*models.TopUpRequest
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[string]*models.Account),
		cars:      make(map[string]*models.Car),
		purchases: make(map[string]*models.Purchase),
		topups:    make(map[string]*models.TopUpRequest),
	}
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }

// SeedAccount inserts an account directly, bypassing EnsureAccount.
// Test helper for admin accounts and preset balances.
func (m *Memory) SeedAccount(account models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	cp := account
	m.accounts[account.ID] = &cp
}

func (m *Memory) GetAccount(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAccountLocked(id)
}

func (m *Memory) getAccountLocked(id string) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) EnsureAccount(_ context.Context, id, name string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	a := &models.Account{
		ID:        id,
		Name:      name,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	m.accounts[id] = a
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if a.IsAdmin {
			continue
		}
		out = append(out, *a)
	}
	sortByCreated(out, func(a models.Account) (time.Time, string) { return a.CreatedAt, a.ID })
	return out, nil
}

func (m *Memory) Debit(_ context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(accountID, amount)
}

func (m *Memory) debitLocked(accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	a, ok := m.accounts[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	if a.Balance.LessThan(amount) {
		return decimal.Zero, &models.InsufficientFundsError{
			AccountID: accountID,
			Balance:   a.Balance,
			Requested: amount,
		}
	}
	a.Balance = a.Balance.Sub(amount)
	return a.Balance, nil
}

func (m *Memory) Credit(_ context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creditLocked(accountID, amount)
}

func (m *Memory) creditLocked(accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	a, ok := m.accounts[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	a.Balance = a.Balance.Add(amount)
	return a.Balance, nil
}

func (m *Memory) CreatePurchaseTx(_ context.Context, purchase *models.Purchase) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.purchases {
		if p.IdempotencyKey == purchase.IdempotencyKey {
			return decimal.Zero, fmt.Errorf("idempotency key reused: %w", models.ErrConflict)
		}
	}

	newBalance, err := m.debitLocked(purchase.AccountID, purchase.PriceAtPurchase)
	if err != nil {
		return decimal.Zero, err
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	cp := *purchase
	m.purchases[purchase.ID] = &cp
	return newBalance, nil
}

func (m *Memory) ApproveTopUpTx(_ context.Context, requestID string) (*models.TopUpRequest, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.topups[requestID]
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("top-up request %s: %w", requestID, models.ErrNotFound)
	}
	if req.Status != models.TopUpPending {
		return nil, decimal.Zero, fmt.Errorf("top-up request %s already reviewed: %w", requestID, models.ErrConflict)
	}
	newBalance, err := m.creditLocked(req.AccountID, req.Amount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	req.Status = models.TopUpApproved
	cp := *req
	return &cp, newBalance, nil
}

func (m *Memory) ListCars(_ context.Context) ([]models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Car, 0, len(m.cars))
	for _, c := range m.cars {
		out = append(out, *c)
	}
	sortByCreated(out, func(c models.Car) (time.Time, string) { return c.CreatedAt, c.ID })
	return out, nil
}

func (m *Memory) GetCar(_ context.Context, id string) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cars[id]
	if !ok {
		return nil, fmt.Errorf("car %s: %w", id, models.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) CreateCar(_ context.Context, car *models.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}
	cp := *car
	m.cars[car.ID] = &cp
	return nil
}

func (m *Memory) GetPurchase(_ context.Context, id string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, fmt.Errorf("purchase %s: %w", id, models.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) GetPurchaseByIdempotencyKey(_ context.Context, key string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPurchases(_ context.Context) ([]models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Purchase, 0, len(m.purchases))
	for _, p := range m.purchases {
		out = append(out, *p)
	}
	sortByCreatedDesc(out, func(p models.Purchase) (time.Time, string) { return p.CreatedAt, p.ID })
	return out, nil
}

func (m *Memory) ListPurchasesByAccount(_ context.Context, accountID string) ([]models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Purchase, 0)
	for _, p := range m.purchases {
		if p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	sortByCreatedDesc(out, func(p models.Purchase) (time.Time, string) { return p.CreatedAt, p.ID })
	return out, nil
}

func (m *Memory) UpdateFulfillmentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return fmt.Errorf("purchase %s: %w", id, models.ErrNotFound)
	}
	p.FulfillmentStatus = status
	return nil
}

func (m *Memory) UpdatePaymentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return fmt.Errorf("purchase %s: %w", id, models.ErrNotFound)
	}
	p.PaymentStatus = status
	return nil
}

func (m *Memory) DeletePurchase(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.purchases[id]; !ok {
		return fmt.Errorf("purchase %s: %w", id, models.ErrNotFound)
	}
	delete(m.purchases, id)
	return nil
}

func (m *Memory) CreateTopUpRequest(_ context.Context, req *models.TopUpRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	cp := *req
	m.topups[req.ID] = &cp
	return nil
}

func (m *Memory) GetTopUpRequest(_ context.Context, id string) (*models.TopUpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.topups[id]
	if !ok {
		return nil, fmt.Errorf("top-up request %s: %w", id, models.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) ListTopUpRequests(_ context.Context) ([]models.TopUpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TopUpRequest, 0, len(m.topups))
	for _, r := range m.topups {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Status == models.TopUpPending) != (out[j].Status == models.TopUpPending) {
			return out[i].Status == models.TopUpPending
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) RejectTopUpRequest(_ context.Context, id string) (*models.TopUpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.topups[id]
	if !ok {
		return nil, fmt.Errorf("top-up request %s: %w", id, models.ErrNotFound)
	}
	if r.Status != models.TopUpPending {
		return nil, fmt.Errorf("top-up request %s already reviewed: %w", id, models.ErrConflict)
	}
	r.Status = models.TopUpRejected
	cp := *r
	return &cp, nil
}

func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}

func sortByCreatedDesc[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi < idj
	})
}
