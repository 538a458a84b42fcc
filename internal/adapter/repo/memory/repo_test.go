package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
)

func testRule(name string, priority int, active bool) inference.Rule {
	return inference.Rule{
		Name:        name,
		Category:    "genre",
		Priority:    priority,
		Specificity: 1,
		Active:      active,
		Conditions: []inference.Condition{{
			Entity: inference.EntityUser, Attribute: "prefers_genre", Operator: inference.OpEq, Value: inference.StringValue("RPG"),
		}},
		Actions: []inference.Action{{Kind: inference.ActionRecommend}},
	}
}

func TestRuleRepo_ListActiveOrdersAndCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepo(NewStore())
	low, _ := repo.Create(ctx, testRule("low", 10, true))
	high, _ := repo.Create(ctx, testRule("high", 90, true))
	if _, err := repo.Create(ctx, testRule("off", 100, false)); err != nil {
		t.Fatalf("create: %v", err)
	}

	rules, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != high.ID || rules[1].ID != low.ID {
		t.Fatalf("unexpected active order: %+v", rules)
	}

	rules[0].Conditions[0].Attribute = "mutated"
	again, _ := repo.Get(ctx, high.ID)
	if again.Conditions[0].Attribute != "prefers_genre" {
		t.Fatalf("reads must return deep copies")
	}
}

func TestRuleRepo_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepo(NewStore())
	for i := 0; i < 5; i++ {
		r := testRule("r", 50, i%2 == 0)
		if i == 4 {
			r.Category = "age"
		}
		if _, err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	active := true
	page, err := repo.List(ctx, ports.RuleFilter{Category: "genre", Active: &active, Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Rules) != 1 || page.Rules[0].ID != 3 {
		t.Fatalf("unexpected page: total=%d rules=%+v", page.Total, page.Rules)
	}
	empty, _ := repo.List(ctx, ports.RuleFilter{Offset: 10, Limit: 5})
	if empty.Total != 5 || len(empty.Rules) != 0 {
		t.Fatalf("expected empty page past the end, got %+v", empty)
	}
	if _, err := repo.List(ctx, ports.RuleFilter{Offset: -16, Limit: 5}); err == nil {
		t.Fatalf("expected negative offset to be rejected")
	}
}

func TestRuleRepo_UpdateKeepsCounters(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepo(NewStore())
	r, _ := repo.Create(ctx, testRule("a", 50, true))
	if err := repo.IncrementTimesFired(ctx, []int64{r.ID, 999}); err != nil {
		t.Fatalf("increment: %v", err)
	}

	r.Name = "renamed"
	r.TimesFired = 0
	updated, err := repo.Update(ctx, r)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed" || updated.TimesFired != 1 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := repo.Update(ctx, inference.Rule{ID: 42}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 42); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if _, err := repo.SetActive(ctx, 42, true); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on set active, got %v", err)
	}
}

func TestRuleRepo_BulkDeleteCountsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepo(NewStore())
	a, _ := repo.Create(ctx, testRule("a", 50, true))
	b, _ := repo.Create(ctx, testRule("b", 50, true))
	n, err := repo.BulkDelete(ctx, []int64{a.ID, b.ID, 77})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d err=%v", n, err)
	}
	if _, err := repo.Get(ctx, a.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected deleted rule to be gone, got %v", err)
	}
}

func TestRuleRepo_ConcurrentIncrementsAreAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepo(NewStore())
	r, _ := repo.Create(ctx, testRule("hot", 50, true))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.IncrementTimesFired(ctx, []int64{r.ID})
		}()
	}
	wg.Wait()

	got, _ := repo.Get(ctx, r.ID)
	if got.TimesFired != 50 {
		t.Fatalf("expected 50 firings, got %d", got.TimesFired)
	}
}

func TestTxManager_ReentrantRepoCalls(t *testing.T) {
	store := NewStore()
	repo := NewRuleRepo(store)
	tx := NewTxManager(store)
	ctx := context.Background()
	r, _ := repo.Create(ctx, testRule("a", 50, true))

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := repo.Get(txCtx, r.ID)
		if err != nil {
			return err
		}
		_, err = repo.SetActive(txCtx, r.ID, !current.Active)
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	got, _ := repo.Get(ctx, r.ID)
	if got.Active {
		t.Fatalf("expected rule to be deactivated")
	}
}

func TestCatalogRepo_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepo(NewStore())
	mc := 90
	err := repo.UpsertCandidates(ctx, []inference.Candidate{
		{ID: 2, Title: "B", Genres: []string{"RPG"}, Metacritic: &mc},
		{ID: 1, Title: "A"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = repo.UpsertCandidates(ctx, []inference.Candidate{{ID: 1, Title: "A2"}})

	got, err := repo.ListCandidates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Title != "A2" || got[1].ID != 2 {
		t.Fatalf("unexpected catalog: %+v", got)
	}
	got[1].Genres[0] = "mutated"
	*got[1].Metacritic = 1
	again, _ := repo.ListCandidates(ctx)
	if again[1].Genres[0] != "RPG" || *again[1].Metacritic != 90 {
		t.Fatalf("catalog reads must be copies")
	}
}
