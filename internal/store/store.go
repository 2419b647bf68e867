package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"carshop/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Store is the persistence boundary for the shop. The ledger methods
// (Debit, Credit, CreatePurchaseTx, ApproveTopUpTx) are atomic
// read-modify-write operations scoped to the owning account row; two
// concurrent calls on the same account never both commit against a stale
// balance.
type Store interface {
	// Accounts
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	// EnsureAccount returns the account for id, creating it with a zero
	// balance and no privileges on first sight.
	EnsureAccount(ctx context.Context, id, name string) (*models.Account, error)
	// ListAccounts returns non-admin accounts ordered by creation time.
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// Ledger
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	// CreatePurchaseTx debits the owning account by the purchase's
	// price-at-purchase and inserts the purchase record, all in one
	// transaction. Returns the balance after the debit.
	CreatePurchaseTx(ctx context.Context, purchase *models.Purchase) (decimal.Decimal, error)
	// ApproveTopUpTx transitions a pending request to approved and credits
	// its amount in one transaction. A request that is not pending returns
	// ErrConflict, so a request can never be credited twice.
	ApproveTopUpTx(ctx context.Context, requestID string) (*models.TopUpRequest, decimal.Decimal, error)

	// Catalog
	ListCars(ctx context.Context) ([]models.Car, error)
	GetCar(ctx context.Context, id string) (*models.Car, error)
	CreateCar(ctx context.Context, car *models.Car) error

	// Purchases
	GetPurchase(ctx context.Context, id string) (*models.Purchase, error)
	GetPurchaseByIdempotencyKey(ctx context.Context, key string) (*models.Purchase, error)
	ListPurchases(ctx context.Context) ([]models.Purchase, error)
	ListPurchasesByAccount(ctx context.Context, accountID string) ([]models.Purchase, error)
	UpdateFulfillmentStatus(ctx context.Context, id, status string) error
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	DeletePurchase(ctx context.Context, id string) error

	// Top-up requests
	CreateTopUpRequest(ctx context.Context, req *models.TopUpRequest) error
	GetTopUpRequest(ctx context.Context, id string) (*models.TopUpRequest, error)
	ListTopUpRequests(ctx context.Context) ([]models.TopUpRequest, error)
	RejectTopUpRequest(ctx context.Context, id string) (*models.TopUpRequest, error)

	Close() error
}

// SQLStore is the Postgres-backed Store.
type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore connects to Postgres and bootstraps the schema.
func NewSQLStore(databaseURL string) (*SQLStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		balance    NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS cars (
		id          TEXT PRIMARY KEY,
		make        TEXT NOT NULL,
		model       TEXT NOT NULL,
		year        INT NOT NULL,
		price       NUMERIC(18,2) NOT NULL,
		image       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS purchases (
		id                 TEXT PRIMARY KEY,
		account_id         TEXT NOT NULL REFERENCES accounts(id),
		car_id             TEXT NOT NULL,
		make               TEXT NOT NULL,
		model              TEXT NOT NULL,
		year               INT NOT NULL,
		price_at_purchase  NUMERIC(18,2) NOT NULL,
		image              TEXT NOT NULL,
		fulfillment_status TEXT NOT NULL,
		payment_status     TEXT NOT NULL,
		idempotency_key    TEXT NOT NULL UNIQUE,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS topup_requests (
		id         TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		amount     NUMERIC(18,2) NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// GetAccount retrieves an account by ID
func (s *SQLStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

// EnsureAccount creates the account on first sight with a zero balance.
// The admin flag always defaults to false; it is only ever raised by an
// operator directly against the database.
func (s *SQLStore) EnsureAccount(ctx context.Context, id, name string) (*models.Account, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, id, name)
	if err != nil {
		return nil, mapError(err)
	}
	return s.GetAccount(ctx, id)
}

// ListAccounts returns all non-admin accounts
func (s *SQLStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.SelectContext(ctx, &accounts,
		"SELECT * FROM accounts WHERE is_admin = FALSE ORDER BY created_at, id")
	if err != nil {
		return nil, mapError(err)
	}
	return accounts, nil
}

// mapError translates driver-level failures into the service taxonomy.
// Serialization failures and deadlocks are retryable conflicts; connection
// failures surface as store unavailability.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", models.ErrConflict, err)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", models.ErrConflict, err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return err
}
