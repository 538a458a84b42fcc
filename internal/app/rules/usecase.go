package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
	"gamesage/internal/validation"
)

var ErrInvalidRequest = errors.New("invalid rule request")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UseCase implements rule administration. Every write goes through
// inference.PrepareRule so stored rules always satisfy the rule invariants.
type UseCase struct {
	Repo      ports.RuleRepository
	TxManager ports.TxManager
	Now       func() time.Time
}

func (u UseCase) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	if err := validation.Struct(req); err != nil {
		return ListResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	res, err := u.Repo.List(ctx, ports.RuleFilter{
		Category: strings.TrimSpace(req.Category),
		Active:   req.Active,
		Offset:   (page - 1) * size,
		Limit:    size,
	})
	if err != nil {
		return ListResponse{}, err
	}
	items := make([]RuleView, 0, len(res.Rules))
	for _, r := range res.Rules {
		items = append(items, toView(r))
	}
	return ListResponse{
		Items:      items,
		Total:      res.Total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((res.Total + int64(size) - 1) / int64(size)),
	}, nil
}

func (u UseCase) Get(ctx context.Context, id int64) (RuleView, error) {
	if id <= 0 {
		return RuleView{}, fmt.Errorf("%w: rule id must be positive", ErrInvalidRequest)
	}
	r, err := u.Repo.Get(ctx, id)
	if err != nil {
		return RuleView{}, err
	}
	return toView(r), nil
}

func (u UseCase) Create(ctx context.Context, in RuleInput) (RuleView, error) {
	r, err := u.build(in)
	if err != nil {
		return RuleView{}, err
	}
	now := u.now()
	r.CreatedAt = now
	r.UpdatedAt = now
	created, err := u.Repo.Create(ctx, r)
	if err != nil {
		return RuleView{}, err
	}
	return toView(created), nil
}

func (u UseCase) Update(ctx context.Context, id int64, in RuleInput) (RuleView, error) {
	if id <= 0 {
		return RuleView{}, fmt.Errorf("%w: rule id must be positive", ErrInvalidRequest)
	}
	r, err := u.build(in)
	if err != nil {
		return RuleView{}, err
	}
	r.ID = id
	r.UpdatedAt = u.now()
	updated, err := u.Repo.Update(ctx, r)
	if err != nil {
		return RuleView{}, err
	}
	return toView(updated), nil
}

func (u UseCase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: rule id must be positive", ErrInvalidRequest)
	}
	return u.Repo.Delete(ctx, id)
}

// Toggle flips the active flag inside one transaction.
func (u UseCase) Toggle(ctx context.Context, id int64) (RuleView, error) {
	if id <= 0 {
		return RuleView{}, fmt.Errorf("%w: rule id must be positive", ErrInvalidRequest)
	}
	var out inference.Rule
	err := u.runInTx(ctx, func(txCtx context.Context) error {
		current, err := u.Repo.Get(txCtx, id)
		if err != nil {
			return err
		}
		out, err = u.Repo.SetActive(txCtx, id, !current.Active)
		return err
	})
	if err != nil {
		return RuleView{}, err
	}
	return toView(out), nil
}

func (u UseCase) BulkDelete(ctx context.Context, req BulkDeleteRequest) (BulkDeleteResponse, error) {
	if err := validation.Struct(req); err != nil {
		return BulkDeleteResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	n, err := u.Repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return BulkDeleteResponse{}, err
	}
	return BulkDeleteResponse{Deleted: n}, nil
}

// Validate decodes and validates a rule without storing it.
func Validate(in RuleInput) (inference.Rule, error) {
	return UseCase{}.build(in)
}

func (u UseCase) build(in RuleInput) (inference.Rule, error) {
	if err := validation.Struct(in); err != nil {
		return inference.Rule{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	conds, err := inference.DecodeConditions(in.ConditionsJSON)
	if err != nil {
		return inference.Rule{}, err
	}
	actions, err := inference.DecodeActions(in.ActionsJSON)
	if err != nil {
		return inference.Rule{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return inference.PrepareRule(inference.Rule{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Priority:    in.Priority,
		Active:      active,
		Conditions:  conds,
		Actions:     actions,
	})
}

func (u UseCase) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.TxManager == nil {
		return fn(ctx)
	}
	return u.TxManager.RunInTx(ctx, fn)
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now().UTC()
	}
	return time.Now().UTC()
}
