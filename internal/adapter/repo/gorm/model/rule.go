package model

import (
	"time"

	"gorm.io/datatypes"
)

const TableNameRule = "rules"

// Rule mapped from table <rules>
type Rule struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description;not null" json:"description"`
	Category    string         `gorm:"column:category;not null" json:"category"`
	Priority    int32          `gorm:"column:priority;not null" json:"priority"`
	Specificity int32          `gorm:"column:specificity;not null" json:"specificity"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Conditions  datatypes.JSON `gorm:"column:conditions;type:jsonb;not null" json:"conditions"`
	Actions     datatypes.JSON `gorm:"column:actions;type:jsonb;not null" json:"actions"`
	TimesFired  int64          `gorm:"column:times_fired;not null" json:"times_fired"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

// TableName Rule's table name
func (*Rule) TableName() string {
	return TableNameRule
}
