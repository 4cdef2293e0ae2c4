package postgres

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitializeDatabaseConnection opens the relational audit store and runs the
// schema migrations for the models passed in.
func InitializeDatabaseConnection(dsn string, models ...interface{}) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Postgres Connection Error: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatalf("Postgres Migration Error: %v", err)
		}
	}

	log.Println("✨ Connected to Postgres.")
	return db
}
