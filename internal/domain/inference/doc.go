// Package inference is a forward-chaining production-rule engine for game
// recommendations.
//
// A run seeds working memory with caller facts, then repeatedly matches the
// active rules, picks one winner from the conflict set with a conflict
// strategy, and fires its actions. Each rule fires at most once per run.
// The run stops when the goal fact becomes truthy, no rule matches, the
// iteration cap is hit, or the context is cancelled. Surviving candidates
// are then ranked and the firings are turned into an explanation.
package inference
