package sqlite

import (
	"privacy_rules/internal/domain"
	"time"
)

type RuleModel struct {
	ID       int64 `gorm:"primaryKey;autoIncrement:false"`
	Position int   `gorm:"index"`

	Action string
	Data   string
	From   string `gorm:"column:source"`

	UpdatedAt time.Time
}

func (RuleModel) TableName() string {
	return "privacy_rules"
}

func toModel(r domain.Rule, position int) RuleModel {
	return RuleModel{
		ID:       int64(r.ID),
		Position: position,
		Action:   string(r.Action),
		Data:     string(r.Data),
		From:     r.From,
	}
}

func (m RuleModel) toDomain() domain.Rule {
	return domain.Rule{
		ID:     int(m.ID),
		Action: domain.ActionType(m.Action),
		Data:   domain.DataType(m.Data),
		From:   m.From,
	}
}
