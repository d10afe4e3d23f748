package database

import (
	"strings"

	"lessonbook/internal/domain"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// cgo-free sqlite driver, registered as "sqlite"
	_ "modernc.org/sqlite"
)

// Connect opens PostgreSQL for deployment and SQLite for local development
// and tests. TranslateError maps driver duplicate-key errors onto
// gorm.ErrDuplicatedKey so repositories can treat both engines alike.
func Connect(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
}

// Migrate creates or updates the schema for every core table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.AvailabilitySlot{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.RefundRecord{},
		&domain.Notification{},
	)
}
