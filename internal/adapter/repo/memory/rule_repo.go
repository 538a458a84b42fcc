package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
)

type RuleRepo struct {
	store *Store
}

func NewRuleRepo(store *Store) RuleRepo {
	return RuleRepo{store: store}
}

func (r RuleRepo) ListActive(ctx context.Context) ([]inference.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []inference.Rule
	r.store.read(ctx, func() {
		out = make([]inference.Rule, 0, len(r.store.rules))
		for _, rule := range r.store.rules {
			if rule.Active {
				out = append(out, rule.Clone())
			}
		}
	})
	inference.SortRules(out)
	return out, nil
}

func (r RuleRepo) List(ctx context.Context, filter ports.RuleFilter) (ports.RulePage, error) {
	var matched []inference.Rule
	r.store.read(ctx, func() {
		for _, rule := range r.store.rules {
			if filter.Category != "" && rule.Category != filter.Category {
				continue
			}
			if filter.Active != nil && rule.Active != *filter.Active {
				continue
			}
			matched = append(matched, rule.Clone())
		}
	})
	slices.SortFunc(matched, func(a, b inference.Rule) int {
		return cmp.Compare(a.ID, b.ID)
	})
	if filter.Offset < 0 || filter.Limit < 0 {
		return ports.RulePage{}, fmt.Errorf("invalid rule page offset=%d limit=%d", filter.Offset, filter.Limit)
	}
	page := ports.RulePage{Total: int64(len(matched)), Rules: []inference.Rule{}}
	if filter.Offset >= len(matched) {
		return page, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	page.Rules = matched[filter.Offset:end]
	return page, nil
}

func (r RuleRepo) Get(ctx context.Context, id int64) (inference.Rule, error) {
	var (
		rule inference.Rule
		ok   bool
	)
	r.store.read(ctx, func() {
		rule, ok = r.store.rules[id]
	})
	if !ok {
		return inference.Rule{}, ports.ErrNotFound
	}
	return rule.Clone(), nil
}

func (r RuleRepo) Create(ctx context.Context, rule inference.Rule) (inference.Rule, error) {
	r.store.write(ctx, func() {
		r.store.nextRuleID++
		rule.ID = r.store.nextRuleID
		rule.TimesFired = 0
		r.store.rules[rule.ID] = rule.Clone()
	})
	return rule.Clone(), nil
}

func (r RuleRepo) Update(ctx context.Context, rule inference.Rule) (inference.Rule, error) {
	var err error
	r.store.write(ctx, func() {
		current, ok := r.store.rules[rule.ID]
		if !ok {
			err = ports.ErrNotFound
			return
		}
		rule.TimesFired = current.TimesFired
		rule.CreatedAt = current.CreatedAt
		r.store.rules[rule.ID] = rule.Clone()
	})
	if err != nil {
		return inference.Rule{}, err
	}
	return rule.Clone(), nil
}

func (r RuleRepo) Delete(ctx context.Context, id int64) error {
	var err error
	r.store.write(ctx, func() {
		if _, ok := r.store.rules[id]; !ok {
			err = ports.ErrNotFound
			return
		}
		delete(r.store.rules, id)
	})
	return err
}

func (r RuleRepo) SetActive(ctx context.Context, id int64, active bool) (inference.Rule, error) {
	var (
		out inference.Rule
		err error
	)
	r.store.write(ctx, func() {
		rule, ok := r.store.rules[id]
		if !ok {
			err = ports.ErrNotFound
			return
		}
		rule.Active = active
		r.store.rules[id] = rule
		out = rule.Clone()
	})
	return out, err
}

func (r RuleRepo) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	r.store.write(ctx, func() {
		for _, id := range ids {
			if _, ok := r.store.rules[id]; ok {
				delete(r.store.rules, id)
				n++
			}
		}
	})
	return n, nil
}

func (r RuleRepo) IncrementTimesFired(ctx context.Context, ids []int64) error {
	r.store.write(ctx, func() {
		for _, id := range ids {
			if rule, ok := r.store.rules[id]; ok {
				rule.TimesFired++
				r.store.rules[id] = rule
			}
		}
	})
	return nil
}
