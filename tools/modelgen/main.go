// Command modelgen regenerates the gorm models in
// internal/adapter/repo/gorm/model from a live gamesage schema.
//
// gen maps jsonb and date columns to plain strings, so after a run these
// fields must be retyped by hand before the repositories compile:
//   - Rule.Conditions, Rule.Actions: datatypes.JSON
//   - Game.Genres, Game.Platforms, Game.Tags: datatypes.JSONSlice[string]
//   - Game.Released: *time.Time
//   - Game.Metacritic stays *int32 (nullable integer)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

func main() {
	var dsn, out string
	flag.StringVar(&dsn, "dsn", os.Getenv("GAMESAGE_DB_DSN"), "postgres dsn for the gamesage schema")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.Parse()

	if dsn == "" {
		log.Fatal("missing --dsn or GAMESAGE_DB_DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext | gen.WithDefaultQuery,
	})
	g.UseDB(db)
	g.GenerateAllTable()
	g.Execute()

	fmt.Printf("generated gorm models at %s\n", out)
}
