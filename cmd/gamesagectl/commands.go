package main

import (
	"context"
	"fmt"
	"io"
	"os"

	staticseed "gamesage/internal/adapter/seed/static"
	"gamesage/internal/app/recommend"
	"gamesage/internal/app/seed"
	"gamesage/internal/bootstrap"
	"gamesage/internal/config"
	"gamesage/internal/logging"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "gamesagectl",
		Short:         "Administer the gamesage recommendation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newInferCmd(opts),
		newRulesCmd(),
	)
	return root
}

func (o *rootOptions) load() (config.Config, bootstrap.Storage, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, bootstrap.Storage{}, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	storage, err := bootstrap.OpenStorage(cfg.Database)
	if err != nil {
		return config.Config{}, bootstrap.Storage{}, err
	}
	return cfg, storage, nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, storage, err := opts.load()
			if err != nil {
				return err
			}
			if storage.DB == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "memory driver has no schema; nothing to migrate")
				return nil
			}
			if err := storage.Migrate(cmd.Context(), cfg.Database); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the rule pack and game catalog into storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, storage, err := opts.load()
			if err != nil {
				return err
			}
			if err := storage.Migrate(cmd.Context(), cfg.Database); err != nil {
				return err
			}
			res, err := storage.Seeder(cfg.Database).Execute(cmd.Context(), seed.Request{Force: force})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "insert rules even when some already exist")
	return cmd
}

func newInferCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run one inference from a JSON request file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			var req recommend.Request
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
			cfg, storage, err := opts.load()
			if err != nil {
				return err
			}
			if err := prepareStorage(cmd.Context(), cfg, storage); err != nil {
				return err
			}
			resp, err := bootstrap.Recommend(cfg, storage, nil).Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "inference request JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// prepareStorage seeds memory storage, which starts empty for every command.
func prepareStorage(ctx context.Context, cfg config.Config, storage bootstrap.Storage) error {
	if storage.DB != nil {
		return nil
	}
	_, err := storage.Seeder(cfg.Database).Execute(ctx, seed.Request{})
	return err
}

func newRulesCmd() *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Work with rule pack files",
	}
	rules.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a YAML or JSON rule pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read rule pack: %w", err)
			}
			parsed, err := staticseed.ParseRules(data)
			if err != nil {
				return err
			}
			active := 0
			for _, r := range parsed {
				if r.Active {
					active++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule(s) valid, %d active\n", args[0], len(parsed), active)
			return nil
		},
	})
	return rules
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
