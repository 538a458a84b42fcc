package inference

import "time"

const releasedLayout = "2006-01-02"

// Candidate is a read-only catalog item. Runs never modify it.
type Candidate struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Genres     []string   `json:"genres"`
	Platforms  []string   `json:"platforms"`
	Tags       []string   `json:"tags"`
	Rating     float64    `json:"rating"`
	Metacritic *int       `json:"metacritic,omitempty"`
	AgeRating  int        `json:"age_rating"`
	Playtime   int        `json:"playtime"`
	Released   *time.Time `json:"released,omitempty"`
}

// Attribute exposes static fields to conditions. Null metacritic and
// released are absent.
func (c Candidate) Attribute(name string) (Value, bool) {
	switch normalizeName(name) {
	case "id":
		return NumberValue(float64(c.ID)), true
	case "title", "name":
		return StringValue(c.Title), true
	case "genres", "genre":
		return StringsValue(c.Genres...), true
	case "platforms", "platform":
		return StringsValue(c.Platforms...), true
	case "tags", "tag":
		return StringsValue(c.Tags...), true
	case "rating":
		return NumberValue(c.Rating), true
	case "metacritic":
		if c.Metacritic == nil {
			return Value{}, false
		}
		return IntValue(*c.Metacritic), true
	case "age_rating":
		return IntValue(c.AgeRating), true
	case "playtime":
		return IntValue(c.Playtime), true
	case "released":
		if c.Released == nil {
			return Value{}, false
		}
		return StringValue(c.Released.Format(releasedLayout)), true
	case "released_year":
		if c.Released == nil {
			return Value{}, false
		}
		return IntValue(c.Released.Year()), true
	default:
		return Value{}, false
	}
}

// Reasons is the attribute map echoed back with a recommendation.
func (c Candidate) Reasons() map[string]any {
	out := map[string]any{
		"genres":     nonNil(c.Genres),
		"platforms":  nonNil(c.Platforms),
		"tags":       nonNil(c.Tags),
		"rating":     c.Rating,
		"age_rating": c.AgeRating,
		"playtime":   c.Playtime,
	}
	if c.Metacritic != nil {
		out["metacritic"] = *c.Metacritic
	}
	if c.Released != nil {
		out["released"] = c.Released.Format(releasedLayout)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// candidateState is the per-run overlay on top of a Candidate.
type candidateState struct {
	Candidate
	score        float64
	excluded     bool
	recommended  bool
	reasons      []string
	contributors []string
}

func (s *candidateState) Attribute(name string) (Value, bool) {
	if normalizeName(name) == "score" {
		return NumberValue(s.score), true
	}
	return s.Candidate.Attribute(name)
}

func (s *candidateState) addReason(reason string) {
	if reason == "" {
		return
	}
	for _, r := range s.reasons {
		if r == reason {
			return
		}
	}
	s.reasons = append(s.reasons, reason)
}

func (s *candidateState) addContributor(rule string) {
	for _, r := range s.contributors {
		if r == rule {
			return
		}
	}
	s.contributors = append(s.contributors, rule)
}

// exclude is one-way. There is no operation that clears the flag.
func (s *candidateState) exclude() bool {
	if s.excluded {
		return false
	}
	s.excluded = true
	return true
}
