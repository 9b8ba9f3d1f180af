package infrastructure

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ai-interviewer/config"
	"ai-interviewer/domain"
)

// OpenDatabase connects with the configured driver, migrates the schema and
// seeds the settings row.
func OpenDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// one writer; also keeps an in-memory database alive across calls
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database ready", zap.String("driver", cfg.Driver))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Settings{},
		&domain.Interview{},
		&domain.Question{},
		&domain.Answer{},
		&domain.Skill{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return seedSettings(db)
}

func seedSettings(db *gorm.DB) error {
	var existing domain.Settings
	err := db.First(&existing, domain.SettingsID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load settings: %w", err)
	}

	defaults := domain.DefaultSettings()
	if err := db.Create(&defaults).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
