package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const shippingColumns = `id, producer_id, product_id, quantity, unit,
	origin_address, origin_city, origin_country,
	destination_address, destination_city, destination_country,
	required_date, special_instructions, status, version, created_at, updated_at`

type shippingRepository struct {
	db *sql.DB
}

// NewShippingRepository создаёт PostgreSQL-реализацию ShippingRepository.
func NewShippingRepository(store *Store) domain.ShippingRepository {
	return &shippingRepository{db: store.DB()}
}

func (r *shippingRepository) Create(request domain.ShippingRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return insertShippingRequest(ctx, r.db, request)
}

func (r *shippingRepository) Get(id string) (domain.ShippingRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	request, err := scanShippingRequest(r.db.QueryRowContext(ctx, `SELECT `+shippingColumns+` FROM shipping_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ShippingRequest{}, domain.ErrShippingRequestNotFound
		}
		return domain.ShippingRequest{}, fmt.Errorf("select shipping request: %w", err)
	}
	return request, nil
}

func (r *shippingRepository) ListByProducer(producerID string) ([]domain.ShippingRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shippingColumns+`
		FROM shipping_requests
		WHERE producer_id = $1
		ORDER BY created_at DESC, id DESC
	`, producerID)
	if err != nil {
		return nil, fmt.Errorf("list shipping requests: %w", err)
	}
	defer rows.Close()

	requests := make([]domain.ShippingRequest, 0)
	for rows.Next() {
		request, err := scanShippingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipping request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipping requests: %w", err)
	}
	return requests, nil
}

func (r *shippingRepository) Save(request domain.ShippingRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE shipping_requests
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(request.Status), request.UpdatedAt, request.ID, request.Version)
	if err != nil {
		return fmt.Errorf("update shipping request: %w", err)
	}
	return versionedUpdateResult(ctx, r.db, res, "shipping_requests", request.ID, domain.ErrShippingRequestNotFound)
}

func insertShippingRequest(ctx context.Context, q queryer, request domain.ShippingRequest) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO shipping_requests (`+shippingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		request.ID, request.ProducerID, request.ProductID, request.Quantity.Value, request.Quantity.Unit,
		request.Origin.Address, request.Origin.City, request.Origin.Country,
		request.Destination.Address, request.Destination.City, request.Destination.Country,
		domain.DateOnly(request.RequiredDate), request.SpecialInstructions, string(request.Status),
		request.Version, request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert shipping request: %w", err)
	}
	return nil
}

func scanShippingRequest(row rowScanner) (domain.ShippingRequest, error) {
	var (
		req          domain.ShippingRequest
		qty          decimal.Decimal
		unit, status string
	)
	if err := row.Scan(
		&req.ID, &req.ProducerID, &req.ProductID, &qty, &unit,
		&req.Origin.Address, &req.Origin.City, &req.Origin.Country,
		&req.Destination.Address, &req.Destination.City, &req.Destination.Country,
		&req.RequiredDate, &req.SpecialInstructions, &status, &req.Version, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return domain.ShippingRequest{}, err
	}
	req.Quantity = domain.Quantity{Value: qty, Unit: unit}
	req.Status = domain.ShippingStatus(status)
	req.RequiredDate = domain.DateOnly(req.RequiredDate)
	return req, nil
}

var _ domain.ShippingRepository = (*shippingRepository)(nil)
