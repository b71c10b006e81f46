// seed_articles carga el maestro de artículos (CSV exportado de la hoja de cálculo) en PostgreSQL.
//
// Uso: go run ./cmd/seed_articles [ruta/articulos.csv] [charset]
// Por defecto lee articulos.csv en UTF-8; charset admite ISO-8859-1 y WINDOWS-1252.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/consumibles-api/internal/infrastructure/catalog"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/postgres"
	"github.com/jhoicas/consumibles-api/pkg/config"
)

func main() {
	path := "articulos.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	charset := ""
	if len(os.Args) > 2 {
		charset = os.Args[2]
	}
	if err := run(path, charset); err != nil {
		fmt.Fprintf(os.Stderr, "seed_articles: %v\n", err)
		os.Exit(1)
	}
}

func run(path, charset string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	articles, err := catalog.Read(f, charset)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return postgres.NewArticleRepository(tx).Upsert(ctx, articles)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Cargados %d artículos desde %s\n", len(articles), path)
	return nil
}
