package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/brain-product-parser/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// StoredProduct is a persisted ProductRecord.
type StoredProduct struct {
	ID int64 `json:"id"`
	models.ProductRecord
	CreatedAt time.Time `json:"created_at"`
}

// productRow mirrors the products table; absent values are nil pointers.
type productRow struct {
	Title            *string
	RegularPrice     *float64
	SalePrice        *float64
	Photos           []byte
	ReviewCount      *int
	Code             *string
	Specifications   []byte
	Manufacturer     *string
	Memory           *string
	Color            *string
	ScreenDiagonal   *string
	ScreenResolution *string
	SourceURL        string
	ScrapedAt        time.Time
}

func rowFromRecord(r *models.ProductRecord) (*productRow, error) {
	photos := r.Photos
	if photos == nil {
		photos = []string{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photos: %w", err)
	}

	specs := r.Specifications
	if specs == nil {
		specs = models.SpecTree{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal specifications: %w", err)
	}

	scrapedAt := r.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	return &productRow{
		Title:            r.Title.Ptr(),
		RegularPrice:     r.RegularPrice.Ptr(),
		SalePrice:        r.SalePrice.Ptr(),
		Photos:           photosJSON,
		ReviewCount:      r.ReviewCount.Ptr(),
		Code:             r.Code.Ptr(),
		Specifications:   specsJSON,
		Manufacturer:     r.Manufacturer.Ptr(),
		Memory:           r.Memory.Ptr(),
		Color:            r.Color.Ptr(),
		ScreenDiagonal:   r.ScreenDiagonal.Ptr(),
		ScreenResolution: r.ScreenResolution.Ptr(),
		SourceURL:        r.SourceURL,
		ScrapedAt:        scrapedAt,
	}, nil
}

func (row *productRow) record() (models.ProductRecord, error) {
	r := models.ProductRecord{
		Title:          models.FromPtr(row.Title),
		RegularPrice:   models.FromPtr(row.RegularPrice),
		SalePrice:      models.FromPtr(row.SalePrice),
		Photos:         []string{},
		ReviewCount:    models.FromPtr(row.ReviewCount),
		Code:           models.FromPtr(row.Code),
		Specifications: models.SpecTree{},
		SpecSummary: models.SpecSummary{
			Manufacturer:     models.FromPtr(row.Manufacturer),
			Memory:           models.FromPtr(row.Memory),
			Color:            models.FromPtr(row.Color),
			ScreenDiagonal:   models.FromPtr(row.ScreenDiagonal),
			ScreenResolution: models.FromPtr(row.ScreenResolution),
		},
		SourceURL: row.SourceURL,
		ScrapedAt: row.ScrapedAt,
	}

	if len(row.Photos) > 0 {
		if err := json.Unmarshal(row.Photos, &r.Photos); err != nil {
			return r, fmt.Errorf("failed to unmarshal photos: %w", err)
		}
	}
	if len(row.Specifications) > 0 {
		if err := json.Unmarshal(row.Specifications, &r.Specifications); err != nil {
			return r, fmt.Errorf("failed to unmarshal specifications: %w", err)
		}
	}
	return r, nil
}

// Save inserts one record and returns its id. Absent fields are stored as
// NULL.
func (db *DB) Save(ctx context.Context, r *models.ProductRecord) (int64, error) {
	row, err := rowFromRecord(r)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO products (
			title, regular_price, sale_price, photos, review_count, code,
			specifications, manufacturer, memory, color,
			screen_diagonal, screen_resolution, source_url, scraped_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		RETURNING id`

	var id int64
	err = db.pool.QueryRow(ctx, query,
		row.Title, row.RegularPrice, row.SalePrice, row.Photos, row.ReviewCount, row.Code,
		row.Specifications, row.Manufacturer, row.Memory, row.Color,
		row.ScreenDiagonal, row.ScreenResolution, row.SourceURL, row.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}

	return id, nil
}

const selectProducts = `
	SELECT
		id, title, regular_price, sale_price, photos, review_count, code,
		specifications, manufacturer, memory, color,
		screen_diagonal, screen_resolution, source_url, scraped_at, created_at
	FROM products`

// ListProducts returns stored products, oldest first. limit <= 0 means all.
func (db *DB) ListProducts(ctx context.Context, limit int) ([]*StoredProduct, error) {
	query := selectProducts + ` ORDER BY id ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*StoredProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

func (db *DB) GetProduct(ctx context.Context, id int64) (*StoredProduct, error) {
	p, err := scanProduct(db.pool.QueryRow(ctx, selectProducts+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProduct(s pgx.Row) (*StoredProduct, error) {
	var (
		p   StoredProduct
		row productRow
	)

	err := s.Scan(
		&p.ID, &row.Title, &row.RegularPrice, &row.SalePrice, &row.Photos, &row.ReviewCount, &row.Code,
		&row.Specifications, &row.Manufacturer, &row.Memory, &row.Color,
		&row.ScreenDiagonal, &row.ScreenResolution, &row.SourceURL, &row.ScrapedAt, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	record, err := row.record()
	if err != nil {
		return nil, err
	}
	p.ProductRecord = record
	return &p, nil
}
