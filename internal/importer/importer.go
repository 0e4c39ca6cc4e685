// Package importer loads shop products from a CSV export, creating
// categories as it encounters them.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"knot-art-api/internal/domain"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	EnsureCategory(ctx context.Context, name, friendlyName string) (*domain.Category, error)
}

// CSVImporter reads product rows and inserts/updates the catalog.
type CSVImporter struct {
	reader  *csv.Reader
	catalog CatalogWriter

	categoryIDs map[string]string
}

func NewCSVImporter(r io.Reader, catalog CatalogWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		catalog:     catalog,
		categoryIDs: make(map[string]string),
	}
}

type csvRow struct {
	Category         string
	CategoryFriendly string
	SKU              string
	Name             string
	Desc             string
	Cents            int64
	ImageURL         string
	IsActive         bool
	IsNew            bool
}

// Run parses CSV rows and upserts one product per row. Rows with no
// name are skipped; a malformed row aborts the run.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.SKU == "" || row.Cents <= 0 {
		return fmt.Errorf("invalid product row (missing sku or price) for %q", row.Name)
	}

	p := domain.Product{
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  row.Cents,
		ImageURL:    row.ImageURL,
		IsActive:    row.IsActive,
		IsNew:       row.IsNew,
	}

	if row.Category != "" {
		id, err := i.categoryID(ctx, row.Category, row.CategoryFriendly)
		if err != nil {
			return fmt.Errorf("ensure category %q: %w", row.Category, err)
		}
		p.CategoryID = &id
	}

	if _, err := i.catalog.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name, friendly string) (string, error) {
	if id, ok := i.categoryIDs[name]; ok {
		return id, nil
	}
	if friendly == "" {
		friendly = name
	}
	c, err := i.catalog.EnsureCategory(ctx, name, friendly)
	if err != nil {
		return "", err
	}
	i.categoryIDs[name] = c.ID
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	name := pick(record, index, "name")
	if name == "" {
		return nil
	}

	var cents int64
	if v := pick(record, index, "price_cents"); v != "" {
		cents, _ = strconv.ParseInt(v, 10, 64)
	}

	return &csvRow{
		Category:         pick(record, index, "category"),
		CategoryFriendly: pick(record, index, "friendly_category"),
		SKU:              pick(record, index, "sku"),
		Name:             name,
		Desc:             pick(record, index, "description"),
		Cents:            cents,
		ImageURL:         pick(record, index, "image_url"),
		IsActive:         pickBool(record, index, "is_active", true),
		IsNew:            pickBool(record, index, "is_new", true),
	}
}

func pick(record []string, index map[string]int, key string) string {
	i, ok := index[key]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func pickBool(record []string, index map[string]int, key string, def bool) bool {
	v := pick(record, index, key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}
