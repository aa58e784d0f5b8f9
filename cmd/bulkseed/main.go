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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/bulkseed/storage/elasticsearch"
	"github.com/urfave/cli/v2"
)

const defaultIndex = "news-deneme"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bulkseed",
		Usage: "Create, seed and query a news index on Elasticsearch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Elasticsearch base URL",
				Value:   "http://127.0.0.1:9200",
				EnvVars: []string{"BULKSEED_URL"},
			},
			&cli.StringFlag{
				Name:    "username",
				Usage:   "Basic auth username",
				EnvVars: []string{"BULKSEED_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Basic auth password",
				EnvVars: []string{"BULKSEED_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:    "insecure",
				Usage:   "Skip TLS certificate verification",
				EnvVars: []string{"BULKSEED_INSECURE"},
			},
			&cli.DurationFlag{
				Name:  "request-timeout",
				Usage: "Timeout for each HTTP request to the cluster",
				Value: 30 * time.Second,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "create-index",
				Usage:  "Create the news index",
				Action: createIndexCommand,
				Flags: []cli.Flag{
					indexFlag(),
					&cli.BoolFlag{
						Name:  "autocomplete",
						Usage: "Add the edge n-gram auto-complete analyzer",
					},
					&cli.BoolFlag{
						Name:  "if-not-exists",
						Usage: "Succeed when the index already exists",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Bulk index sample news or a JSON Lines file",
				Action: seedCommand,
				Flags: []cli.Flag{
					indexFlag(),
					&cli.StringFlag{
						Name:    "src",
						Aliases: []string{"s"},
						Usage:   "JSON Lines file to ingest (sample news when empty)",
					},
					&cli.StringFlag{
						Name:  "key-field",
						Usage: "Document field used as the document id for --src",
						Value: "newsId",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of sample news items to generate",
						Value: len(sampleHeadlines),
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records in each bulk request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-parallelism",
						Usage: "Maximum number of bulk requests in flight",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Additional attempts for a failing batch",
						Value: 2,
					},
					&cli.DurationFlag{
						Name:  "backoff",
						Usage: "Fixed delay between attempts of a batch",
						Value: 15 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "no-refresh",
						Usage: "Do not refresh the index when seeding completes",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Stop waiting for the run after this long (0 waits forever)",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
					&cli.StringFlag{
						Name:  "ledger",
						Usage: "BadgerDB directory recording batch outcomes",
					},
					&cli.StringFlag{
						Name:  "local",
						Usage: "Write into a local BadgerDB directory instead of Elasticsearch",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (enables embeddings when set)",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Run a match query against the index",
				Action: searchCommand,
				Flags: []cli.Flag{
					indexFlag(),
					&cli.StringFlag{
						Name:    "field",
						Aliases: []string{"f"},
						Usage:   "Field to match",
						Value:   "newsTitle",
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Text to match",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Maximum number of hits",
						Value: 10,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the embeddings of documents in a local BadgerDB directory",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "local",
						Usage:    "BadgerDB directory written by seed --local",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "text-field",
						Usage: "Document field holding the text to embed",
						Value: "newsTitle",
					},
					&cli.StringFlag{
						Name:  "vector-field",
						Usage: "Document field receiving the vector",
						Value: "newsTitleVector",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents embedded per request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-parallelism",
						Usage: "Maximum number of embedding requests in flight",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Additional attempts for a failing batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "backoff",
						Usage: "Fixed delay between attempts of a batch",
						Value: time.Second,
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Scale vectors to unit length",
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "Show the recorded batch outcomes of a run",
				Action: runsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ledger",
						Usage:    "BadgerDB directory holding the ledger",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "run",
						Usage:    "Run id printed by seed",
						Required: true,
					},
				},
			},
		},
	}
}

func indexFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Index name",
		Value:   defaultIndex,
	}
}

// esConfig builds the client configuration from the global flags.
func esConfig(c *cli.Context) *elasticsearch.Config {
	return &elasticsearch.Config{
		URL:           c.String("url"),
		Username:      c.String("username"),
		Password:      c.String("password"),
		SkipTLSVerify: c.Bool("insecure"),
		Timeout:       c.Duration("request-timeout"),
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
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
