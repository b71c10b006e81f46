package repository

import (
	"context"

	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// ArticleRepository puerto de lectura del catálogo de consumibles.
type ArticleRepository interface {
	GetBySKU(ctx context.Context, sku string) (*entity.Article, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Article, error)
}
