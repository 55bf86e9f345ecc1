package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"matchroom/internal/domain"
)

// MigrateDB handles all database migrations using the provided GORM DB
// instance. The unique indexes created here carry real invariants: at most
// one vote per (room, user, content) and at most one match per (room,
// content); they are not just performance indexes.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.Room{},
		&domain.Member{},
		&domain.Vote{},
		&domain.Match{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
