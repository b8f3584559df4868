package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"adops/internal/config"
	"adops/internal/models"
	console "adops/internal/utils/logger"
)

var DB *gorm.DB
var log = console.New("DB")

// ParseLogLevel maps POSTGRES_LOG_LEVEL onto gorm's levels, defaulting to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
	)
}

// Connect opens the pool with retries and migrates the schema.
func Connect(cfg *config.Config) error {
	dsn := DSN(cfg.Database)

	log.Info("Connecting to database %s@%s:%d...", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)
	maxRetries := 5
	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:                                   logger.Default.LogMode(ParseLogLevel(cfg.Database.LogLevel)),
			DisableForeignKeyConstraintWhenMigrating: true,
			PrepareStmt:                              true,
			AllowGlobalUpdate:                        false,
			TranslateError:                           true,
		})
		if err == nil {
			log.Success("Connected to database")

			sqlDB, err := DB.DB()
			if err != nil {
				return log.Error("Failed to get underlying *sql.DB instance", err)
			}

			sqlDB.SetMaxOpenConns(100)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxLifetime(time.Hour)
			sqlDB.SetConnMaxIdleTime(time.Minute * 30)

			if err := Migrate(DB); err != nil {
				return log.Error("Failed to run migrations", err)
			}

			log.Success("Migrations completed")
			return nil
		}
		log.Warn("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Second * 5)
	}
	return log.Error("Giving up on database", fmt.Errorf("failed to connect to database after %d attempts", maxRetries))
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		// tenancy
		&models.Account{},
		&models.User{},
		&models.UserAccount{},
		&models.UserPermission{},

		// catalogue
		&models.ParentCompany{},
		&models.Brand{},
		&models.UserAccountBrand{},
		&models.Playlist{},

		// file tree
		&models.Folder{},
		&models.File{},
		&models.FolderBrandAccess{},
		&models.FileBrandAccess{},
	}
}

func Migrate(db *gorm.DB) error {
	log.Info("Running migrations...")
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.AutoMigrate(Models()...); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
