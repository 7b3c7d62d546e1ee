package sqldb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
)

// purchaseRepository implements domain.PurchaseRepository
type purchaseRepository struct {
	db *DB
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *DB) domain.PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create records the purchase with all its lines and credits the bought units
// to each asset in a single database transaction
func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertPurchaseQuery := r.db.rebind(`
		INSERT INTO purchases (id, wallet_id, description, date)
		VALUES ($1, $2, $3, $4)
	`)

	_, err = dbTx.ExecContext(ctx, insertPurchaseQuery,
		purchase.ID,
		purchase.WalletID,
		purchase.Description,
		purchase.Date.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	insertLineQuery := r.db.rebind(`
		INSERT INTO purchase_lines (id, purchase_id, asset_id, units, unit_price, cost)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	creditAssetQuery := r.db.rebind(`
		UPDATE assets
		SET amount = amount + $1
		WHERE id = $2 AND wallet_id = $3
	`)

	for _, line := range purchase.Lines {
		_, err = dbTx.ExecContext(ctx, insertLineQuery,
			line.ID,
			line.PurchaseID,
			line.AssetID,
			line.Units,
			line.UnitPrice.String(),
			line.Cost.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert purchase line: %w", err)
		}

		result, err := dbTx.ExecContext(ctx, creditAssetQuery, line.Units, line.AssetID, purchase.WalletID)
		if err != nil {
			return fmt.Errorf("failed to credit asset units: %w", err)
		}
		if err := expectOneRow(result, fmt.Sprintf("asset %s in wallet %s", line.AssetID, purchase.WalletID)); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByWallet retrieves a paginated list of purchases for a wallet, newest first
func (r *purchaseRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*domain.Purchase, error) {
	query := r.db.rebind(`
		SELECT id, wallet_id, description, date
		FROM purchases
		WHERE wallet_id = $1
		ORDER BY date DESC
		LIMIT $2 OFFSET $3
	`)

	rows, err := r.db.QueryContext(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	var purchases []*domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.WalletID, &p.Description, &p.Date); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, &p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}
	// Release the connection before loading lines; SQLite runs on a single one
	rows.Close()

	for _, p := range purchases {
		lines, err := r.listLines(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Lines = lines
	}

	return purchases, nil
}

func (r *purchaseRepository) listLines(ctx context.Context, purchaseID uuid.UUID) ([]domain.PurchaseLine, error) {
	query := r.db.rebind(`
		SELECT id, purchase_id, asset_id, units, unit_price, cost
		FROM purchase_lines
		WHERE purchase_id = $1
		ORDER BY asset_id
	`)

	rows, err := r.db.QueryContext(ctx, query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.PurchaseLine
	for rows.Next() {
		var line domain.PurchaseLine
		var unitPriceStr, costStr string

		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.AssetID, &line.Units, &unitPriceStr, &costStr); err != nil {
			return nil, fmt.Errorf("failed to scan purchase line: %w", err)
		}

		if line.UnitPrice, err = decimal.NewFromString(unitPriceStr); err != nil {
			return nil, fmt.Errorf("failed to parse unit_price: %w", err)
		}
		if line.Cost, err = decimal.NewFromString(costStr); err != nil {
			return nil, fmt.Errorf("failed to parse cost: %w", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchase lines: %w", err)
	}

	return lines, nil
}
