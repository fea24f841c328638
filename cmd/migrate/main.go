package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := pflag.StringP("cmd", "c", "up", "migration command: up|down|status|version|create|validate")
	dir := pflag.StringP("dir", "d", migrate.EmbeddedDir, "goose migrations directory; empty uses the embedded receipts migrations")
	name := pflag.String("name", "", "migration name (for create)")
	version := pflag.String("version", "", "target version (YYYYMMDDHHMMSS) for --cmd=version")
	pflag.Parse()

	sourceDir := *dir

	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing --name for create")
		}
		if sourceDir == migrate.EmbeddedDir {
			sourceDir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(sourceDir, *name, time.Now())
		if err != nil {
			fail("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		validate := func() error { return migrate.ValidateDir(sourceDir) }
		if sourceDir == migrate.EmbeddedDir {
			validate = migrate.ValidateEmbedded
		}
		if err := validate(); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Static:      map[string]any{"env": cfg.App.Env},
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"cmd":    *cmd,
		"dir":    sourceDir,
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, dbClient.Driver(), sourceDir, *cmd); err != nil {
			fail("goose %s failed: %v", *cmd, err)
		}
	case "version":
		if *version == "" {
			fail("missing --version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, dbClient.Driver(), sourceDir, *version); err != nil {
			fail("goose version migrate failed: %v", err)
		}
	default:
		fail("unknown --cmd value: %s", *cmd)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
