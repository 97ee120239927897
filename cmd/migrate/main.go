package main

import (
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to roll back with down (0 means all)")
	flag.Parse()

	cfg := config.Load()
	config.MustNonEmpty(config.Setting{Name: "DATABASE_URL", Value: cfg.DatabaseURL})

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Println("no migrations applied")
			return
		}
		if verr != nil {
			log.Fatalf("version: %v", verr)
		}
		log.Printf("version %d dirty=%t", v, dirty)
		return
	default:
		log.Fatalf("unknown command %q, want up, down or version", cmd)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
	log.Printf("migrate %s done", cmd)
}
