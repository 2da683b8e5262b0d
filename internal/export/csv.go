package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/maltedev/brain-product-parser/internal/database"
	"github.com/maltedev/brain-product-parser/internal/models"
)

// ErrNoProducts is returned by ExportAll when there is nothing to write.
var ErrNoProducts = errors.New("no products to export")

// Source lists stored products.
type Source interface {
	ListProducts(ctx context.Context, limit int) ([]*database.StoredProduct, error)
}

var Header = []string{
	"id", "title", "regular_price", "sale_price", "photos", "review_count", "code",
	"specifications", "manufacturer", "memory", "color", "screen_diagonal",
	"screen_resolution", "source_url", "scraped_at", "created_at",
}

// WriteCSV writes a header and one flat row per product. Absent values are
// empty cells; photos and specifications are JSON encoded.
func WriteCSV(w io.Writer, products []*database.StoredProduct) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range products {
		row, err := csvRow(p)
		if err != nil {
			return err
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// ExportAll writes every stored product to path. With zero products it logs
// a warning, writes nothing and returns ErrNoProducts.
func ExportAll(ctx context.Context, src Source, path string, logger *slog.Logger) (int, error) {
	products, err := src.ListProducts(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	if len(products) == 0 {
		logger.Warn("no products found in database to export")
		return 0, ErrNoProducts
	}

	if err := ensureDir(path); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv file: %w", err)
	}

	if err := WriteCSV(f, products); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close csv file: %w", err)
	}

	logger.Info("exported products to csv", "count", len(products), "path", path)
	return len(products), nil
}

func csvRow(p *database.StoredProduct) ([]string, error) {
	photos, err := json.Marshal(p.Photos)
	if err != nil {
		return nil, fmt.Errorf("marshal photos: %w", err)
	}
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return nil, fmt.Errorf("marshal specifications: %w", err)
	}

	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Title.OrElse(""),
		formatPrice(p.RegularPrice),
		formatPrice(p.SalePrice),
		string(photos),
		formatInt(p.ReviewCount),
		p.Code.OrElse(""),
		string(specs),
		p.Manufacturer.OrElse(""),
		p.Memory.OrElse(""),
		p.Color.OrElse(""),
		p.ScreenDiagonal.OrElse(""),
		p.ScreenResolution.OrElse(""),
		p.SourceURL,
		formatTime(p.ScrapedAt),
		formatTime(p.CreatedAt),
	}, nil
}

func formatPrice(o models.Optional[float64]) string {
	v, ok := o.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatInt(o models.Optional[int]) string {
	v, ok := o.Get()
	if !ok {
		return ""
	}
	return strconv.Itoa(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
