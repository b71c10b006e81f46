package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo catálogo de consumibles sobre PostgreSQL (usable con pool o tx).
// El maestro lo mantiene un proceso externo; aquí solo se lee.
type ArticleRepo struct {
	q Querier
}

// NewArticleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewArticleRepository(q Querier) *ArticleRepo {
	return &ArticleRepo{q: q}
}

const articleColumns = `sku, name, unit, category, safety_stock, initial_stock, supplier, lead_time_days, sale_price, active, updated_at`

func scanArticle(row pgx.Row) (*entity.Article, error) {
	var a entity.Article
	err := row.Scan(&a.SKU, &a.Name, &a.Unit, &a.Category, &a.SafetyStock, &a.InitialStock,
		&a.Supplier, &a.LeadTimeDays, &a.SalePrice, &a.Active, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetBySKU obtiene un artículo por SKU; nil, nil si no existe.
func (r *ArticleRepo) GetBySKU(ctx context.Context, sku string) (*entity.Article, error) {
	a, err := scanArticle(r.q.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE sku = $1`, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// List lista el catálogo ordenado por SKU.
func (r *ArticleRepo) List(ctx context.Context, activeOnly bool) ([]*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY sku`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Upsert carga o actualiza artículos del maestro externo (herramienta de siembra).
func (r *ArticleRepo) Upsert(ctx context.Context, articles []*entity.Article) error {
	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name, unit = EXCLUDED.unit, category = EXCLUDED.category,
			safety_stock = EXCLUDED.safety_stock, initial_stock = EXCLUDED.initial_stock,
			supplier = EXCLUDED.supplier, lead_time_days = EXCLUDED.lead_time_days,
			sale_price = EXCLUDED.sale_price, active = EXCLUDED.active, updated_at = now()`
	for _, a := range articles {
		if _, err := r.q.Exec(ctx, query, a.SKU, a.Name, a.Unit, a.Category, a.SafetyStock, a.InitialStock,
			a.Supplier, a.LeadTimeDays, a.SalePrice, a.Active); err != nil {
			return fmt.Errorf("upsert article %s: %w", a.SKU, err)
		}
	}
	return nil
}
