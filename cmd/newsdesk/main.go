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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newsdesk",
		Usage: "News article analysis and question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (NEWSDESK_* variables override it)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides log.level",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			serveCommand(),
			ingestCommand(),
			askCommand(),
			migrateCommand(),
			reembedCommand(),
			feedCommand(),
		},
	}
}

// setup loads .env and the config, then installs the default logger.
func setup(c *cli.Context) error {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if err := setupLogger(cfg.Log.Level); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(levelStr string) error {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// openDesk opens a desk from the loaded config.
func openDesk(ctx context.Context, c *cli.Context, opts ...newsdesk.Option) (*newsdesk.Desk, error) {
	opts = append(opts, deskOptions...)
	opts = append(opts, newsdesk.WithLogger(slog.Default()))
	desk, err := newsdesk.Open(ctx, loadedConfig(c), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open newsdesk: %w", err)
	}
	return desk, nil
}

// deskOptions are appended to every openDesk call. Tests use it to replace
// the model provider.
var deskOptions []newsdesk.Option
