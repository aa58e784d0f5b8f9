package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/poiesic/bulkseed"
	"github.com/poiesic/bulkseed/ai"
	"github.com/poiesic/bulkseed/ai/openai"
	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/ingestion"
	"github.com/poiesic/bulkseed/reembed"
	"github.com/poiesic/bulkseed/storage"
	"github.com/poiesic/bulkseed/storage/badger"
	"github.com/poiesic/bulkseed/storage/elasticsearch"
	"github.com/urfave/cli/v2"
)

func createIndexCommand(c *cli.Context) error {
	cluster, err := bulkseed.NewCluster(esConfig(c))
	if err != nil {
		return fmt.Errorf("failed to configure cluster: %w", err)
	}
	defer cluster.Close()

	index := c.String("index")
	err = cluster.CreateIndex(c.Context, index, c.Bool("autocomplete"))
	if errors.Is(err, elasticsearch.ErrIndexExists) && c.Bool("if-not-exists") {
		fmt.Fprintf(c.App.Writer, "Index %s already exists\n", index)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created index %s\n", index)
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := c.Context

	config := &ingestion.Config{
		BatchSize:          c.Int("batch-size"),
		MaxParallelism:     c.Int("max-parallelism"),
		MaxRetries:         c.Int("max-retries"),
		BackOffDelay:       c.Duration("backoff"),
		RefreshOnCompleted: !c.Bool("no-refresh"),
	}
	if err := config.Validate(); err != nil {
		return err
	}

	records, sourceErr, closeSource, err := openSource(c)
	if err != nil {
		return err
	}
	defer closeSource()

	var (
		pipeline *ingestion.Pipeline
		cleanup  func()
		target   string
	)
	if dir := c.String("local"); dir != "" {
		pipeline, cleanup, err = localPipeline(c, dir, config)
		target = dir
	} else {
		pipeline, cleanup, err = clusterPipeline(c, config)
		target = c.String("url") + "/" + c.String("index")
	}
	if err != nil {
		return err
	}
	defer cleanup()
	defer pipeline.Release()

	run, err := pipeline.Ingest(ctx, records)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Seeding %s (run %s)\n", target, run.ID())

	tracked := make(chan struct{})
	if c.Bool("progress") {
		go func() {
			defer close(tracked)
			ingestion.NewProgressReporter(c.App.ErrWriter, time.Second).Track(run)
		}()
	} else {
		close(tracked)
	}

	waitCtx := ctx
	if timeout := c.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	summary, err := run.Wait(waitCtx)
	if err != nil {
		// Stop dispatching and let in-flight batches leave the destination
		// before it is closed.
		slog.Warn("run abandoned, waiting for in-flight batches", "run", run.ID(), "err", err)
		pipeline.Release()
		<-run.Done()
		return fmt.Errorf("gave up waiting for run %s: %w", run.ID(), err)
	}
	<-tracked

	if err := sourceErr(); err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	printSummary(c.App.Writer, summary)
	if summary.HasFailures() {
		return cli.Exit(fmt.Sprintf("%d of %d batches failed", summary.FailedBatches, summary.Batches), 2)
	}
	return nil
}

// openSource returns the records to seed, a function reporting read errors
// once iteration is over, and a closer.
func openSource(c *cli.Context) (iter.Seq[core.Record], func() error, func(), error) {
	path := c.String("src")
	if path == "" {
		records, err := sampleRecords(c.Int("count"))
		if err != nil {
			return nil, nil, nil, err
		}
		return ingestion.FromSlice(records), func() error { return nil }, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open source: %w", err)
	}
	src := ingestion.NewJSONLinesSource(f, c.String("key-field"))
	return src.Records(), src.Err, func() { f.Close() }, nil
}

func aiConfig(c *cli.Context) *ai.Config {
	if c.String("embedding-model") == "" {
		return nil
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
}

func clusterPipeline(c *cli.Context, config *ingestion.Config) (*ingestion.Pipeline, func(), error) {
	var opts []bulkseed.ClusterOption
	if path := c.String("ledger"); path != "" {
		opts = append(opts, bulkseed.WithLedger(path))
	}
	if cfg := aiConfig(c); cfg != nil {
		opts = append(opts, bulkseed.WithEmbeddings(cfg))
	}

	cluster, err := bulkseed.NewCluster(esConfig(c), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure cluster: %w", err)
	}

	pipeline, err := cluster.NewIngestionPipeline(c.String("index"), config,
		ingestion.WithObserver(ingestion.NewLogObserver(slog.Default())))
	if err != nil {
		cluster.Close()
		return nil, nil, err
	}
	return pipeline, func() { cluster.Close() }, nil
}

// localPipeline writes into a BadgerDB directory. Outcomes are recorded in
// the same database unless --ledger names another one.
func localPipeline(c *cli.Context, dir string, config *ingestion.Config) (*ingestion.Pipeline, func(), error) {
	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closers := []func() error{backend.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Error("error closing local storage", "err", err)
			}
		}
	}

	var ledger storage.LedgerRepository = badger.NewLedgerRepository(backend)
	if path := c.String("ledger"); path != "" && path != dir {
		ledgerBackend, err := badger.OpenBackend(path, false)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		closers = append(closers, ledgerBackend.Close)
		ledger = badger.NewLedgerRepository(ledgerBackend)
	}

	var destination storage.Destination = badger.NewDocumentStore(backend)
	if cfg := aiConfig(c); cfg != nil {
		embedder, err := openai.NewEmbedder(cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		destination, err = ingestion.NewEmbeddingDestination(destination, embedder,
			cfg.TextField, cfg.VectorField, slog.Default())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(destination, config,
		ingestion.WithLedger(ledger),
		ingestion.WithObserver(ingestion.NewLogObserver(slog.Default())))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return pipeline, cleanup, nil
}

func printSummary(w io.Writer, s ingestion.Summary) {
	fmt.Fprintf(w, "Run:      %s\n", s.RunID)
	fmt.Fprintf(w, "Batches:  %d (%d succeeded, %d failed)\n", s.Batches, s.Succeeded, s.FailedBatches)
	fmt.Fprintf(w, "Records:  %d (%d indexed)\n", s.Records, s.Indexed)
	fmt.Fprintf(w, "Attempts: %d\n", s.Attempts)
	fmt.Fprintf(w, "Elapsed:  %s\n", s.Elapsed.Round(time.Millisecond))
	if s.RefreshErr != nil {
		fmt.Fprintf(w, "Refresh failed: %v\n", s.RefreshErr)
	}
}

func searchCommand(c *cli.Context) error {
	cluster, err := bulkseed.NewCluster(esConfig(c))
	if err != nil {
		return fmt.Errorf("failed to configure cluster: %w", err)
	}
	defer cluster.Close()

	searcher, err := cluster.NewSearcher(c.String("index"))
	if err != nil {
		return err
	}

	field := c.String("field")
	hits, err := searcher.Match(c.Context, field, c.String("query"), c.Int("size"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(c.App.Writer, "%d: '%s' (%s)[%0.3f]\n", i, fieldText(hit, field), hit.Key, hit.Score)
	}
	return nil
}

// fieldText renders the matched field of a hit for display.
func fieldText(hit *core.SearchHit, field string) string {
	var doc map[string]any
	if err := hit.Decode(&doc); err != nil {
		return ""
	}
	if v, ok := doc[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		b, _ := json.Marshal(v)
		return string(b)
	}
	return ""
}

func runsCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("ledger"), false)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer backend.Close()

	ledger := badger.NewLedgerRepository(backend)
	defer ledger.Close()

	runID := c.String("run")
	outcomes, err := ledger.ListOutcomes(c.Context, runID)
	if err != nil {
		return fmt.Errorf("failed to list outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		fmt.Fprintf(c.App.Writer, "No outcomes recorded for run %s\n", runID)
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tSTATUS\tRECORDS\tATTEMPTS\tFINISHED\tERROR")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n", o.BatchSeq, o.Status, o.Records, o.Attempts,
			o.FinishedAt.Format(time.RFC3339), o.LastError)
	}
	return tw.Flush()
}

func reembedCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("local"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithFields(c.String("text-field"), c.String("vector-field")),
	)
	embedder, err := openai.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedder, err := reembed.NewReembedder(badger.NewDocumentStore(backend), embedder, cfg, &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		MaxParallelism: c.Int("max-parallelism"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("backoff"),
		ReportInterval: time.Second,
		Normalize:      c.Bool("normalize"),
	}, c.App.ErrWriter)
	if err != nil {
		return err
	}

	summary, err := reembedder.Run(c.Context)
	if errors.Is(err, reembed.ErrIncomplete) {
		printSummary(c.App.Writer, summary)
		return cli.Exit(err.Error(), 2)
	}
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	if summary.Batches > 0 {
		printSummary(c.App.Writer, summary)
	}
	return nil
}
