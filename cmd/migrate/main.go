package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/routeboard/internal/adapters/postgres"
	"github.com/samirrijal/routeboard/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down> [dir]")
	}
	dir := "migrations"
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	cfg, err := config.Load("routeboard-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	files, err := migrationFiles(dir, os.Args[1])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := apply(ctx, db, files); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%d %s migrations applied", len(files), os.Args[1])
}

// migrationFiles lists the *.up.sql or *.down.sql files in dir. Up files run
// in name order, down files in reverse.
func migrationFiles(dir, direction string) ([]string, error) {
	switch direction {
	case "up", "down":
	default:
		return nil, fmt.Errorf("unknown command: %s", direction)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*."+direction+".sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s migrations in %s", direction, dir)
	}

	sort.Strings(files)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}
	return files, nil
}

// apply runs every file in one transaction so a failed migration leaves the
// schema untouched.
func apply(ctx context.Context, db *postgres.DB, files []string) error {
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", f, err)
			}
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return fmt.Errorf("exec %s: %w", f, err)
			}
			fmt.Printf("OK  %s\n", f)
		}
		return nil
	})
}
