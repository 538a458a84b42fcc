package staticseed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gamesage/internal/domain/inference"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml data/games.yaml
var bundled embed.FS

const (
	rulesFile = "rules.yaml"
	gamesFile = "games.yaml"
)

var ErrInvalidSeedPath = errors.New("invalid seed filepath")

// Provider serves the bundled rule pack and sample catalog. When Root is
// set, files found there take precedence over the bundled ones.
type Provider struct {
	Root string
}

func (p Provider) Rules(_ context.Context) ([]inference.Rule, error) {
	data, err := p.read(rulesFile)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}

func (p Provider) Candidates(_ context.Context) ([]inference.Candidate, error) {
	data, err := p.read(gamesFile)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func (p Provider) read(name string) ([]byte, error) {
	if strings.TrimSpace(p.Root) != "" {
		path, err := secureJoin(p.Root, name)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return bundled.ReadFile("data/" + name)
}

type rulePack struct {
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	ID          int64                    `yaml:"id"`
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	Category    string                   `yaml:"category"`
	Priority    int                      `yaml:"priority"`
	Active      *bool                    `yaml:"active"`
	Conditions  []inference.ConditionDoc `yaml:"conditions"`
	Actions     []inference.ActionDoc    `yaml:"actions"`
}

// ParseRules decodes a YAML (or JSON) rule pack and validates every rule.
func ParseRules(data []byte) ([]inference.Rule, error) {
	var pack rulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("decode rule pack: %w", err)
	}
	out := make([]inference.Rule, 0, len(pack.Rules))
	for i, doc := range pack.Rules {
		conds, err := inference.ConditionsFromDocs(doc.Conditions)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, doc.Name, err)
		}
		actions, err := inference.ActionsFromDocs(doc.Actions)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, doc.Name, err)
		}
		active := true
		if doc.Active != nil {
			active = *doc.Active
		}
		r, err := inference.PrepareRule(inference.Rule{
			ID:          doc.ID,
			Name:        doc.Name,
			Description: doc.Description,
			Category:    doc.Category,
			Priority:    doc.Priority,
			Active:      active,
			Conditions:  conds,
			Actions:     actions,
		})
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, doc.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

type catalogDoc struct {
	Games []gameDoc `yaml:"games"`
}

type gameDoc struct {
	ID         int64    `yaml:"id"`
	Title      string   `yaml:"title"`
	Genres     []string `yaml:"genres"`
	Platforms  []string `yaml:"platforms"`
	Tags       []string `yaml:"tags"`
	Rating     float64  `yaml:"rating"`
	Metacritic *int     `yaml:"metacritic"`
	AgeRating  int      `yaml:"age_rating"`
	Playtime   int      `yaml:"playtime"`
	Released   string   `yaml:"released"`
}

func ParseCatalog(data []byte) ([]inference.Candidate, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]inference.Candidate, 0, len(doc.Games))
	seen := make(map[int64]struct{}, len(doc.Games))
	for _, g := range doc.Games {
		if g.ID <= 0 || strings.TrimSpace(g.Title) == "" {
			return nil, fmt.Errorf("catalog entry %d: id and title are required", g.ID)
		}
		if _, dup := seen[g.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id", g.ID)
		}
		seen[g.ID] = struct{}{}
		c := inference.Candidate{
			ID:         g.ID,
			Title:      g.Title,
			Genres:     g.Genres,
			Platforms:  g.Platforms,
			Tags:       g.Tags,
			Rating:     g.Rating,
			Metacritic: g.Metacritic,
			AgeRating:  g.AgeRating,
			Playtime:   g.Playtime,
		}
		if g.Released != "" {
			released, err := time.Parse(time.DateOnly, g.Released)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %d: released: %w", g.ID, err)
			}
			c.Released = &released
		}
		out = append(out, c)
	}
	return out, nil
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ErrInvalidSeedPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidSeedPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if target != rootAbs && !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidSeedPath
	}
	return target, nil
}
