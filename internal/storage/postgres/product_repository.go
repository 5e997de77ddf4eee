package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const productColumns = `id, producer_id, name, description, quantity, unit, price, currency, version, created_at, updated_at`

type productRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProductRepository создаёт PostgreSQL-реализацию каталога товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		product.ID, product.ProducerID, product.Name, product.Description,
		product.Quantity.Value, product.Quantity.Unit, product.Price.Value, product.Price.Currency,
		product.Version, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return productWriteError(err, product)
	}
	return nil
}

func (r *productRepository) Find(id string) (domain.Product, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, fmt.Errorf("select product: %w", err)
	}
	return product, true, nil
}

func (r *productRepository) ListByProducer(producerID string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE producer_id = $1
		ORDER BY LOWER(name), id
	`, producerID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) ExistsByNameForProducer(name, producerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM products WHERE producer_id = $1 AND LOWER(name) = LOWER(TRIM($2))
		)
	`, producerID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product name: %w", err)
	}
	return exists, nil
}

func (r *productRepository) Save(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    description = $2,
		    quantity = $3,
		    unit = $4,
		    price = $5,
		    currency = $6,
		    version = version + 1,
		    updated_at = $7
		WHERE id = $8
		  AND version = $9
	`,
		product.Name, product.Description, product.Quantity.Value, product.Quantity.Unit,
		product.Price.Value, product.Price.Currency, product.UpdatedAt, product.ID, product.Version,
	)
	if err != nil {
		return productWriteError(err, product)
	}
	return versionedUpdateResult(ctx, r.db, res, "products", product.ID, domain.ErrProductNotFound)
}

func (r *productRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ReserveStock(reservations []domain.StockReservation) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return reserveStockTx(ctx, tx, reservations, r.now())
	})
}

func (r *productRepository) ReleaseStock(reservations []domain.StockReservation) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	merged, err := domain.MergeReservations(reservations)
	if err != nil {
		return err
	}
	now := r.now()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, res := range merged {
			if !res.Amount.IsPositive() {
				return domain.NewError(domain.ErrNonPositiveAmount, "release amount for %s must be positive", res.ProductID)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE products
				SET quantity = quantity + $1,
				    version = version + 1,
				    updated_at = $2
				WHERE id = $3
			`, res.Amount, now, res.ProductID); err != nil {
				return fmt.Errorf("release stock for %s: %w", res.ProductID, err)
			}
		}
		return nil
	})
}

// reserveStockTx блокирует строки товаров в порядке ID (SELECT ... FOR UPDATE),
// проверяет резервы и списывает остатки в рамках переданной транзакции.
func reserveStockTx(ctx context.Context, tx *sql.Tx, reservations []domain.StockReservation, now time.Time) error {
	merged, err := domain.MergeReservations(reservations)
	if err != nil {
		return err
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })

	for _, res := range merged {
		product, err := scanProduct(tx.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, res.ProductID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewError(domain.ErrProductNotFound, "product %s", res.ProductID)
			}
			return fmt.Errorf("lock product %s: %w", res.ProductID, err)
		}

		next, err := domain.ApplyReservation(product, res, now)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = $1,
			    version = version + 1,
			    updated_at = $2
			WHERE id = $3
		`, next.Quantity.Value, now, next.ID); err != nil {
			return fmt.Errorf("reserve stock for %s: %w", next.ID, err)
		}
	}
	return nil
}

func productWriteError(err error, product domain.Product) error {
	if constraint, ok := uniqueViolation(err); ok {
		if constraint == "products_producer_name_key" {
			return domain.NewError(domain.ErrDuplicateProductName, "product %q already exists", product.Name)
		}
		return domain.ErrVersionConflict
	}
	return fmt.Errorf("write product %s: %w", product.ID, err)
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p               domain.Product
		quantity, price decimal.Decimal
		unit, currency  string
	)
	if err := row.Scan(
		&p.ID, &p.ProducerID, &p.Name, &p.Description, &quantity, &unit,
		&price, &currency, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	p.Quantity = domain.Quantity{Value: quantity, Unit: unit}
	p.Price = domain.Price{Value: price, Currency: currency}
	return p, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
