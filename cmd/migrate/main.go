package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/samirrijal/tzmonths/internal/adapters/postgres"
	"github.com/samirrijal/tzmonths/internal/pkg/config"
)

const batchSize = 50

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|load <timezones.geojson>|count>")
	}

	cfg, err := config.Load("tzmonths-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), time.Duration(cfg.Database.MaxWait)*time.Second)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db)
	case "load":
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate load <timezones.geojson>")
		}
		loadBoundaries(ctx, db, os.Args[2])
	case "count":
		n, err := postgres.NewTimeZoneRepo(db).Count(ctx)
		if err != nil {
			log.Fatalf("count: %v", err)
		}
		fmt.Printf("%d time zone boundaries\n", n)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB) {
	files := []string{
		"migrations/001_timezone_boundaries.sql",
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = db.Pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

// loadBoundaries streams a timezone-boundary-builder FeatureCollection into
// the timezone_boundaries table.
func loadBoundaries(ctx context.Context, db *postgres.DB, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	repo := postgres.NewTimeZoneRepo(db)
	total := 0
	err = decodeFeatures(f, batchSize, func(batch []postgres.Boundary) error {
		if err := repo.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		log.Printf("loaded %d boundaries", total)
		return nil
	})
	if err != nil {
		log.Fatalf("load %s: %v", path, err)
	}
	fmt.Printf("OK  %d boundaries from %s\n", total, path)
}

type feature struct {
	Properties struct {
		TZID string `json:"tzid"`
	} `json:"properties"`
	Geometry json.RawMessage `json:"geometry"`
}

// decodeFeatures walks the "features" array token by token so the multi-
// hundred-megabyte dataset never sits in memory at once.
func decodeFeatures(r io.Reader, size int, flush func([]postgres.Boundary) error) error {
	dec := json.NewDecoder(r)
	if err := seekFeatures(dec); err != nil {
		return err
	}

	batch := make([]postgres.Boundary, 0, size)
	for dec.More() {
		var ft feature
		if err := dec.Decode(&ft); err != nil {
			return fmt.Errorf("decode feature: %w", err)
		}
		if ft.Properties.TZID == "" || len(ft.Geometry) == 0 {
			continue
		}
		batch = append(batch, postgres.Boundary{TZID: ft.Properties.TZID, GeoJSON: ft.Geometry})
		if len(batch) == size {
			if err := flush(batch); err != nil {
				return err
			}
			batch = make([]postgres.Boundary, 0, size)
		}
	}
	if len(batch) > 0 {
		return flush(batch)
	}
	return nil
}

// seekFeatures advances dec to just inside the top-level "features" array.
func seekFeatures(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read geojson: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("geojson must be an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read geojson: %w", err)
		}
		if key, _ := tok.(string); key == "features" {
			tok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("read features: %w", err)
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return fmt.Errorf("features must be an array")
			}
			return nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return fmt.Errorf("skip geojson member: %w", err)
		}
	}
	return fmt.Errorf("geojson has no features array")
}
