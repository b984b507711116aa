package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"roombooking-backend/config"
	"roombooking-backend/internal/model"
)

// Models lists every table managed by AutoMigrate.
var Models = []any{
	&model.User{},
	&model.Room{},
	&model.Item{},
	&model.Reservation{},
	&model.Notification{},
	&model.PushSubscription{},
	&model.PushToken{},
}

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.Driver == "postgres" && cfg.EnableExclusion {
		log.Info("applying reservation overlap constraints")
		if err := applyExclusionDDL(db); err != nil {
			log.Warn("failed to apply reservation overlap constraints; relying on in-transaction checks", zap.Error(err))
		}
	}

	log.Info("database initialization complete")
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// exclusionDDL makes Postgres reject two blocking reservations whose
// [start_at, end_at) ranges overlap in the same room, so concurrent writers
// on different instances cannot both pass the application check.
var exclusionDDL = []string{
	"CREATE EXTENSION IF NOT EXISTS btree_gist;",

	"ALTER TABLE reservations DROP CONSTRAINT IF EXISTS reservations_period_valid;",
	"ALTER TABLE reservations " +
		"ADD CONSTRAINT reservations_period_valid CHECK (start_at < end_at);",

	"ALTER TABLE reservations DROP CONSTRAINT IF EXISTS reservations_no_overlap;",
	"ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap " +
		"EXCLUDE USING GIST (room_id WITH =, tstzrange(start_at, end_at, '[)') WITH &&) " +
		"WHERE (status IN ('ACTIVE', 'APPROVED'));",
}

func applyExclusionDDL(db *gorm.DB) error {
	for _, ddl := range exclusionDDL {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
