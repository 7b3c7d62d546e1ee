package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
)

// walletRepository implements domain.WalletRepository
type walletRepository struct {
	db *DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *DB) domain.WalletRepository {
	return &walletRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var wallet domain.Wallet
	var idealStr string

	if err := row.Scan(&wallet.ID, &wallet.Name, &idealStr); err != nil {
		return nil, err
	}

	ideal, err := decimal.NewFromString(idealStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ideal_percentage: %w", err)
	}
	wallet.IdealPercentage = ideal

	return &wallet, nil
}

// GetByID retrieves a wallet by its ID
func (r *walletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := r.db.rebind(`
		SELECT id, name, ideal_percentage
		FROM wallets
		WHERE id = $1
	`)

	wallet, err := scanWallet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("wallet %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wallet by ID: %w", err)
	}

	return wallet, nil
}

// Create creates a new wallet
func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := r.db.rebind(`
		INSERT INTO wallets (id, name, ideal_percentage)
		VALUES ($1, $2, $3)
	`)

	_, err := r.db.ExecContext(ctx, query,
		wallet.ID,
		wallet.Name,
		wallet.IdealPercentage.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// List retrieves all wallets ordered by name
func (r *walletRepository) List(ctx context.Context) ([]*domain.Wallet, error) {
	query := `
		SELECT id, name, ideal_percentage
		FROM wallets
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}

	return wallets, nil
}

// UpdateIdealPercentage changes the target share of a wallet
func (r *walletRepository) UpdateIdealPercentage(ctx context.Context, id uuid.UUID, idealPercentage decimal.Decimal) error {
	query := r.db.rebind(`
		UPDATE wallets
		SET ideal_percentage = $1
		WHERE id = $2
	`)

	result, err := r.db.ExecContext(ctx, query, idealPercentage.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update ideal percentage: %w", err)
	}

	return expectOneRow(result, fmt.Sprintf("wallet %s", id))
}

// expectOneRow turns an UPDATE that touched nothing into a not-found error
func expectOneRow(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
