package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamesage/internal/adapter/repo/gorm/model"
	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"

	"gorm.io/gorm"
)

type RuleRepo struct {
	db *gorm.DB
}

func NewRuleRepo(db *gorm.DB) RuleRepo {
	return RuleRepo{db: db}
}

func (r RuleRepo) ListActive(ctx context.Context) ([]inference.Rule, error) {
	var rows []model.Rule
	err := getDBFromCtx(ctx, r.db).
		Where("is_active = ?", true).
		Order("priority DESC, specificity DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rulesFromRows(rows)
}

func (r RuleRepo) List(ctx context.Context, filter ports.RuleFilter) (ports.RulePage, error) {
	q := getDBFromCtx(ctx, r.db).Model(&model.Rule{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ports.RulePage{}, err
	}
	var rows []model.Rule
	q = q.Order("id ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return ports.RulePage{}, err
	}
	rules, err := rulesFromRows(rows)
	if err != nil {
		return ports.RulePage{}, err
	}
	return ports.RulePage{Rules: rules, Total: total}, nil
}

func (r RuleRepo) Get(ctx context.Context, id int64) (inference.Rule, error) {
	var m model.Rule
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inference.Rule{}, ports.ErrNotFound
		}
		return inference.Rule{}, err
	}
	return ruleFromRow(m)
}

func (r RuleRepo) Create(ctx context.Context, rule inference.Rule) (inference.Rule, error) {
	m, err := ruleToRow(rule)
	if err != nil {
		return inference.Rule{}, err
	}
	m.ID = 0
	m.TimesFired = 0
	if err := getDBFromCtx(ctx, r.db).Create(&m).Error; err != nil {
		return inference.Rule{}, err
	}
	return ruleFromRow(m)
}

func (r RuleRepo) Update(ctx context.Context, rule inference.Rule) (inference.Rule, error) {
	m, err := ruleToRow(rule)
	if err != nil {
		return inference.Rule{}, err
	}
	updatedAt := rule.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	db := getDBFromCtx(ctx, r.db)
	res := db.Model(&model.Rule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]any{
			"name":        m.Name,
			"description": m.Description,
			"category":    m.Category,
			"priority":    m.Priority,
			"specificity": m.Specificity,
			"is_active":   m.IsActive,
			"conditions":  m.Conditions,
			"actions":     m.Actions,
			"updated_at":  updatedAt,
		})
	if res.Error != nil {
		return inference.Rule{}, res.Error
	}
	if res.RowsAffected == 0 {
		return inference.Rule{}, ports.ErrNotFound
	}
	return r.Get(ctx, rule.ID)
}

func (r RuleRepo) Delete(ctx context.Context, id int64) error {
	res := getDBFromCtx(ctx, r.db).Where("id = ?", id).Delete(&model.Rule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r RuleRepo) SetActive(ctx context.Context, id int64, active bool) (inference.Rule, error) {
	res := getDBFromCtx(ctx, r.db).
		Model(&model.Rule{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return inference.Rule{}, res.Error
	}
	if res.RowsAffected == 0 {
		return inference.Rule{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r RuleRepo) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := getDBFromCtx(ctx, r.db).Where("id IN ?", ids).Delete(&model.Rule{})
	return res.RowsAffected, res.Error
}

// IncrementTimesFired bumps every listed rule in one UPDATE so concurrent
// runs never lose a count.
func (r RuleRepo) IncrementTimesFired(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return getDBFromCtx(ctx, r.db).
		Model(&model.Rule{}).
		Where("id IN ?", ids).
		UpdateColumn("times_fired", gorm.Expr("times_fired + ?", 1)).Error
}

func ruleToRow(rule inference.Rule) (model.Rule, error) {
	conds, err := inference.EncodeConditions(rule.Conditions)
	if err != nil {
		return model.Rule{}, fmt.Errorf("encode conditions: %w", err)
	}
	actions, err := inference.EncodeActions(rule.Actions)
	if err != nil {
		return model.Rule{}, fmt.Errorf("encode actions: %w", err)
	}
	return model.Rule{
		ID:          rule.ID,
		Name:        rule.Name,
		Description: rule.Description,
		Category:    rule.Category,
		Priority:    int32(rule.Priority),
		Specificity: int32(len(rule.Conditions)),
		IsActive:    rule.Active,
		Conditions:  conds,
		Actions:     actions,
		TimesFired:  rule.TimesFired,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}, nil
}

func ruleFromRow(m model.Rule) (inference.Rule, error) {
	conds, err := inference.DecodeConditions(m.Conditions)
	if err != nil {
		return inference.Rule{}, fmt.Errorf("rule %d: %w", m.ID, err)
	}
	actions, err := inference.DecodeActions(m.Actions)
	if err != nil {
		return inference.Rule{}, fmt.Errorf("rule %d: %w", m.ID, err)
	}
	return inference.Rule{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Priority:    int(m.Priority),
		Specificity: int(m.Specificity),
		Active:      m.IsActive,
		Conditions:  conds,
		Actions:     actions,
		TimesFired:  m.TimesFired,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

func rulesFromRows(rows []model.Rule) ([]inference.Rule, error) {
	out := make([]inference.Rule, 0, len(rows))
	for _, m := range rows {
		rule, err := ruleFromRow(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}
