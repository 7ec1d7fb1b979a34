// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/mrdanjohnson/secondbrainv1"
	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/config"
	"github.com/mrdanjohnson/secondbrainv1/reembed"
)

const configKey = "config"

// deps are the collaborators tests replace.
type deps struct {
	stdout   io.Writer
	stderr   io.Writer
	provider ai.AIProvider
	now      func() time.Time
}

func main() {
	app := newApp(deps{stdout: os.Stdout, stderr: os.Stderr})
	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newApp(d deps) *cli.App {
	return &cli.App{
		Name:      "secondbrain",
		Usage:     "Personal knowledge base with hybrid date, category, tag and semantic search",
		Writer:    d.stdout,
		ErrWriter: d.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (default: secondbrain.yaml in ., ./config or $HOME/.secondbrain)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
		},
		Before: setup(d),
		Commands: []*cli.Command{
			searchCommand(d),
			ingestCommand(d),
			importCommand(d),
			editCommand(d),
			recentCommand(d),
			classifyCommand(d),
			tagCommand(d),
			categoriesCommand(d),
			{
				Name:   "reembed",
				Usage:  "Regenerate the embeddings of stored memories",
				Action: reembedAction(d),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides the config)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides the config)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of memories to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N memories",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "only-missing",
						Usage: "Only embed memories that have no embedding yet",
					},
				},
			},
		},
	}
}

// setup loads the configuration, applies global flag overrides and
// installs the logger.
func setup(d deps) cli.BeforeFunc {
	return func(c *cli.Context) error {
		m := config.NewManager()
		var (
			cfg *config.AppConfig
			err error
		)
		if path := c.String("config"); path != "" {
			cfg, err = m.LoadFile(path)
		} else {
			cfg, err = m.Load()
		}
		if err != nil {
			return err
		}

		if c.IsSet("log-level") {
			cfg.LogLevel = strings.ToLower(c.String("log-level"))
		}
		if c.IsSet("db") {
			cfg.Storage.Path = c.String("db")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := setupLogger(d.stderr, cfg.LogLevel); err != nil {
			return err
		}
		if used := m.ConfigFileUsed(); used != "" {
			slog.Debug("using config file", "path", used)
		}

		c.App.Metadata = map[string]any{configKey: cfg}
		return nil
	}
}

func setupLogger(w io.Writer, levelStr string) error {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

func appConfig(c *cli.Context) *config.AppConfig {
	cfg, _ := c.App.Metadata[configKey].(*config.AppConfig)
	return cfg
}

// openBrain opens the knowledge base described by the loaded config.
func openBrain(c *cli.Context, d deps, cfg *config.AppConfig) (*secondbrain.Brain, error) {
	if cfg == nil {
		cfg = appConfig(c)
	}
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	opts := []secondbrain.Option{secondbrain.WithLogger(slog.Default())}
	if d.provider != nil {
		opts = append(opts, secondbrain.WithProvider(d.provider))
	}
	if d.now != nil {
		opts = append(opts, secondbrain.WithClock(d.now))
	}
	brain, err := secondbrain.Open(c.Context, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return brain, nil
}

func reembedAction(d deps) cli.ActionFunc {
	return func(c *cli.Context) error {
		// Copy so the overrides only affect this command.
		cfg := *appConfig(c)
		if host := c.String("embedding-host"); host != "" {
			cfg.AI.EmbeddingHost = host
		}
		if model := c.String("embedding-model"); model != "" {
			cfg.AI.EmbeddingModel = model
		}

		reembedConfig := &reembed.Config{
			BatchSize:      c.Int("batch-size"),
			ReportInterval: c.Int("report-interval"),
			MaxRetries:     c.Int("max-retries"),
			RetryDelay:     c.Duration("retry-delay"),
			OnlyMissing:    c.Bool("only-missing"),
		}

		if err := reembedConfig.Validate(); err != nil {
			return err
		}

		brain, err := openBrain(c, d, &cfg)
		if err != nil {
			return err
		}
		defer brain.Close()

		fmt.Fprintf(d.stderr, "Database: %s\n", storageLocation(&cfg))
		fmt.Fprintf(d.stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
		fmt.Fprintf(d.stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
		fmt.Fprintln(d.stderr)

		if _, err := brain.NewReembedder(reembedConfig, d.stderr).Run(c.Context); err != nil {
			return fmt.Errorf("reembedding failed: %w", err)
		}
		return nil
	}
}

func storageLocation(cfg *config.AppConfig) string {
	if cfg.Storage.Backend == "postgres" {
		return "postgres"
	}
	return cfg.Storage.Path
}
