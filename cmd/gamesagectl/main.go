// Command gamesagectl administers a gamesage deployment: schema migrations,
// seeding, rule pack validation and one-off inference runs.
package main

import (
	"os"

	"gamesage/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Error().Err(err).Msg("gamesagectl failed")
		os.Exit(1)
	}
}
