package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/shopping-planner/backend/internal/models"
	"example.com/shopping-planner/backend/internal/shopping"
)

const uniqueViolation = "23505"

const productColumns = `id, reference_code, name, description, category, price::text, discount::text,
	stock, is_active, keywords, primary_image_url, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ProductRepository struct {
	db *pgxpool.Pool
}

type ProductInput struct {
	ReferenceCode   string
	Name            string
	Description     string
	Category        string
	Price           decimal.Decimal
	Discount        decimal.Decimal
	Stock           int
	IsActive        bool
	Keywords        []string
	PrimaryImageURL *string
}

type ProductFilter struct {
	Category        string
	IncludeInactive bool
}

// NewProductRepository создает репозиторий каталога товаров.
func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

// Ping проверяет доступность базы каталога.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// FindByCode ищет активный товар с точным кодом.
func (r *ProductRepository) FindByCode(ctx context.Context, code string) (shopping.CatalogRecord, error) {
	return r.findActive(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE is_active AND reference_code = $1
		 ORDER BY id
		 LIMIT 1`,
		code,
	)
}

// FindByNamePattern ищет первый активный товар, название которого содержит text без учета регистра.
func (r *ProductRepository) FindByNamePattern(ctx context.Context, text string) (shopping.CatalogRecord, error) {
	return r.findActive(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE is_active AND name ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY id
		 LIMIT 1`,
		escapeLikePattern(text),
	)
}

// FindByKeywords ищет первый активный товар, ключевые слова которого пересекаются с tokens.
func (r *ProductRepository) FindByKeywords(ctx context.Context, tokens []string) (shopping.CatalogRecord, error) {
	if len(tokens) == 0 {
		return shopping.CatalogRecord{}, ErrNotFound
	}

	return r.findActive(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE is_active AND keywords && $1::text[]
		 ORDER BY id
		 LIMIT 1`,
		tokens,
	)
}

func (r *ProductRepository) findActive(ctx context.Context, query string, arg interface{}) (shopping.CatalogRecord, error) {
	product, err := scanProduct(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shopping.CatalogRecord{}, ErrNotFound
		}
		return shopping.CatalogRecord{}, err
	}

	return ToCatalogRecord(product), nil
}

// GetByID возвращает товар по идентификатору.
func (r *ProductRepository) GetByID(ctx context.Context, id int64, includeInactive bool) (models.Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = $1 AND (is_active OR $2)`,
		id, includeInactive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product, ErrNotFound
		}
		return product, err
	}

	return product, nil
}

// List возвращает товары с фильтром и пагинацией.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter, limit, offset int) ([]models.Product, error) {
	where, args := buildProductWhere(filter)

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY id LIMIT $%d OFFSET $%d`, productColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// Count возвращает количество товаров по фильтру.
func (r *ProductRepository) Count(ctx context.Context, filter ProductFilter) (int, error) {
	where, args := buildProductWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Create добавляет товар в каталог.
func (r *ProductRepository) Create(ctx context.Context, input ProductInput) (models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return models.Product{}, err
	}

	product, err := scanProduct(r.db.QueryRow(ctx,
		`INSERT INTO products
		 (reference_code, name, description, category, price, discount, stock, is_active, keywords, primary_image_url)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10)
		 RETURNING `+productColumns,
		strings.TrimSpace(input.ReferenceCode),
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.Description),
		strings.TrimSpace(input.Category),
		input.Price.String(),
		input.Discount.String(),
		input.Stock,
		input.IsActive,
		NormalizeKeywords(input.Keywords),
		input.PrimaryImageURL,
	))
	if err != nil {
		return product, mapWriteError(err)
	}

	return product, nil
}

// Update полностью обновляет товар.
func (r *ProductRepository) Update(ctx context.Context, id int64, input ProductInput) (models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return models.Product{}, err
	}

	product, err := scanProduct(r.db.QueryRow(ctx,
		`UPDATE products
		 SET reference_code = $2,
		     name = $3,
		     description = $4,
		     category = $5,
		     price = $6::numeric,
		     discount = $7::numeric,
		     stock = $8,
		     is_active = $9,
		     keywords = $10,
		     primary_image_url = $11,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id,
		strings.TrimSpace(input.ReferenceCode),
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.Description),
		strings.TrimSpace(input.Category),
		input.Price.String(),
		input.Discount.String(),
		input.Stock,
		input.IsActive,
		NormalizeKeywords(input.Keywords),
		input.PrimaryImageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product, ErrNotFound
		}
		return product, mapWriteError(err)
	}

	return product, nil
}

// Delete удаляет товар из каталога.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ToCatalogRecord переводит товар в запись каталога для сопоставления.
func ToCatalogRecord(product models.Product) shopping.CatalogRecord {
	return shopping.CatalogRecord{
		ID:              product.ID,
		ReferenceCode:   product.ReferenceCode,
		Name:            product.Name,
		Category:        product.Category,
		Price:           product.Price,
		Discount:        product.Discount,
		Stock:           product.Stock,
		IsActive:        product.IsActive,
		Keywords:        product.Keywords,
		PrimaryImageRef: product.PrimaryImageURL,
	}
}

// NormalizeKeywords приводит ключевые слова к нижнему регистру и убирает дубликаты.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		normalized := strings.ToLower(strings.TrimSpace(keyword))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func escapeLikePattern(value string) string {
	return likeEscaper.Replace(value)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.ReferenceCode) == "" || strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Category) == "" {
		return ErrInvalid
	}
	if input.Price.IsNegative() || input.Stock < 0 {
		return ErrInvalid
	}
	if input.Discount.IsNegative() || input.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalid
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

func buildProductWhere(filter ProductFilter) (string, []interface{}) {
	clauses := make([]string, 0)
	args := make([]interface{}, 0)

	if !filter.IncludeInactive {
		clauses = append(clauses, "is_active")
	}

	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var product models.Product
	var price, discount string

	err := row.Scan(
		&product.ID,
		&product.ReferenceCode,
		&product.Name,
		&product.Description,
		&product.Category,
		&price,
		&discount,
		&product.Stock,
		&product.IsActive,
		&product.Keywords,
		&product.PrimaryImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return product, err
	}

	if product.Price, err = decimal.NewFromString(price); err != nil {
		return product, fmt.Errorf("parse price: %w", err)
	}
	if product.Discount, err = decimal.NewFromString(discount); err != nil {
		return product, fmt.Errorf("parse discount: %w", err)
	}

	return product, nil
}
