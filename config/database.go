package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farellandr/runnershive/internal/models"
)

func InitDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		cfg.Database.Port, cfg.Database.SSLMode, cfg.TimeZone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(&models.User{}, &models.Category{}, &models.Event{}, &models.ContactMessage{})
	if err != nil {
		return nil, err
	}

	if err := seedCategories(db, cfg.CategorySeedFile, log); err != nil {
		return nil, err
	}

	return db, nil
}

type categorySeed struct {
	Categories []models.Category `yaml:"categories"`
}

// seedCategories creates the categories listed in the seed file that do not
// exist yet. Existing rows are matched by name and left untouched.
func seedCategories(db *gorm.DB, path string, log *zap.Logger) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("category seed file not found", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}

	categories, err := parseCategorySeed(raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, category := range categories {
		var existing models.Category
		result := db.Where("name = ?", category.Name).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			continue
		}
		if err := db.Create(&category).Error; err != nil {
			return err
		}
		log.Info("category seeded", zap.String("name", category.Name))
	}

	return nil
}

func parseCategorySeed(raw []byte) ([]models.Category, error) {
	var seed categorySeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, err
	}
	for i, category := range seed.Categories {
		if category.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if category.SortOrder < 0 {
			return nil, fmt.Errorf("category %q has a negative sort order", category.Name)
		}
	}
	return seed.Categories, nil
}
