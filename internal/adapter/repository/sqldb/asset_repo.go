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

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `id, wallet_id, name, kind, amount, fixed_price`

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var kind string
	var fixedPriceStr string

	if err := row.Scan(&asset.ID, &asset.WalletID, &asset.Name, &kind, &asset.Amount, &fixedPriceStr); err != nil {
		return nil, err
	}
	asset.Kind = domain.AssetKind(kind)

	fixedPrice, err := decimal.NewFromString(fixedPriceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixed_price: %w", err)
	}
	asset.FixedPrice = fixedPrice

	return &asset, nil
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := r.db.rebind(`SELECT ` + assetColumns + ` FROM assets WHERE id = $1`)

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}

	return asset, nil
}

// GetByName retrieves an asset by its name within a wallet
func (r *assetRepository) GetByName(ctx context.Context, walletID uuid.UUID, name string) (*domain.Asset, error) {
	query := r.db.rebind(`SELECT ` + assetColumns + ` FROM assets WHERE wallet_id = $1 AND name = $2`)

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, walletID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %q in wallet %s: %w", name, walletID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset by name: %w", err)
	}

	return asset, nil
}

// Create creates a new asset, appended after the existing assets of its wallet
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	query := r.db.rebind(`
		INSERT INTO assets (id, wallet_id, name, kind, amount, fixed_price, seq)
		VALUES ($1, $2, $3, $4, $5, $6, (SELECT COALESCE(MAX(seq), 0) + 1 FROM assets))
	`)

	_, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.WalletID,
		asset.Name,
		string(asset.Kind),
		asset.Amount,
		asset.FixedPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// ListByWallet retrieves the assets of a wallet in creation order
func (r *assetRepository) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*domain.Asset, error) {
	query := r.db.rebind(`
		SELECT ` + assetColumns + `
		FROM assets
		WHERE wallet_id = $1
		ORDER BY seq, name
	`)

	rows, err := r.db.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// UpdateAmount overwrites the units held of an asset
func (r *assetRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount int64) error {
	query := r.db.rebind(`UPDATE assets SET amount = $1 WHERE id = $2`)

	result, err := r.db.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to update asset amount: %w", err)
	}

	return expectOneRow(result, fmt.Sprintf("asset %s", id))
}
