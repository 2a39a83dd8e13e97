package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/myflix-app/apiserver/config"
)

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// DatabaseURL is the golang-migrate database URL for the configured driver.
func DatabaseURL(cfg config.Config) (string, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return PostgresURL(cfg.Database), nil
	case config.DriverMongo:
		return MongoURL(cfg.Mongo)
	default:
		return "", fmt.Errorf("driver %q has no migrations", cfg.DBDriver)
	}
}

// Migrate applies every migration for cfg.DBDriver found under root in the
// given direction. Having nothing to apply is not an error.
func Migrate(cfg config.Config, root string, dir Direction) error {
	dsn, err := DatabaseURL(cfg)
	if err != nil {
		return err
	}

	migrator, err := migrate.New(MigrationsURL(root, cfg.DBDriver), dsn)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	switch dir {
	case Up:
		err = migrator.Up()
	case Down:
		err = migrator.Down()
	default:
		return fmt.Errorf("unknown direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s failed: %w", dir, err)
	}
	return nil
}
