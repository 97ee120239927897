package main

import (
	"context"
	"log"
	"time"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(config.Setting{Name: "DATABASE_URL", Value: cfg.DatabaseURL})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logging.IntoContext(ctx, logging.New(cfg.LogLevel))

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer func() { _ = db.Close(gdb) }()

	svc := &service.AuthService{Repo: repo.New(gdb)}
	admin, err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("admin ready: %s (%s)", admin.Email, admin.ID)
}
