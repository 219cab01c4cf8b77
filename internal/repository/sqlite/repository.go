package sqlite

import (
	"context"
	"errors"
	"fmt"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository"

	sqlitedriver "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RuleRepository struct {
	db *gorm.DB
}

var _ repository.RuleRepository = (*RuleRepository)(nil)

// Open connects to the SQLite database at dsn and migrates the rules table.
// Use ":memory:" for a throwaway database.
func Open(dsn string) (*RuleRepository, error) {
	db, err := gorm.Open(sqlitedriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// An in-memory database exists per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return NewRuleRepository(db)
}

func NewRuleRepository(db *gorm.DB) (*RuleRepository, error) {
	if err := db.AutoMigrate(&RuleModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate rules table: %w", err)
	}
	return &RuleRepository{db: db}, nil
}

func (r *RuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	var models []RuleModel
	err := r.db.WithContext(ctx).
		Order("position asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	rules := make([]domain.Rule, 0, len(models))
	for _, m := range models {
		rules = append(rules, m.toDomain())
	}
	return rules, nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id int) (domain.Rule, error) {
	var m RuleModel
	err := r.db.WithContext(ctx).First(&m, int64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Rule{}, fmt.Errorf("%w: rule %d", repository.ErrNotFound, id)
	}
	if err != nil {
		return domain.Rule{}, err
	}
	return m.toDomain(), nil
}

// ReplaceAll swaps the whole table contents in one transaction.
func (r *RuleRepository) ReplaceAll(ctx context.Context, rules []domain.Rule) error {
	if err := repository.CheckUnique(rules); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&RuleModel{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}

		models := make([]RuleModel, 0, len(rules))
		for i, rule := range rules {
			models = append(models, toModel(rule, i))
		}
		return tx.Create(&models).Error
	})
}

func (r *RuleRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
