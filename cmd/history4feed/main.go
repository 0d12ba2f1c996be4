// Command history4feed reconstructs a blog's full post history by mining the
// Wayback Machine for historical snapshots of its RSS/Atom feed, merging
// them with the live feed and any previously persisted state, enriching new
// entries with full-text article content, and writing the result back out
// as a single synthesized RSS document.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/infra/db"
	"github.com/mohamedmoataz-oacc/history4feed/internal/infra/extractor"
	"github.com/mohamedmoataz-oacc/history4feed/internal/infra/httpfetch"
	"github.com/mohamedmoataz-oacc/history4feed/internal/infra/persistence/sqlite"
	"github.com/mohamedmoataz-oacc/history4feed/internal/observability/logging"
	"github.com/mohamedmoataz-oacc/history4feed/internal/repository"
	"github.com/mohamedmoataz-oacc/history4feed/internal/usecase/enrich"
	"github.com/mohamedmoataz-oacc/history4feed/internal/usecase/reconstruct"
)

const dateArgLayout = "2006-01-02"

type cliFlags struct {
	url                   string
	list                  bool
	delete                bool
	earliestEntry         string
	latestEntry           string
	ignoreLiveFeedEntries bool
	pretty                bool
	fullText              bool
	retries               int
	sleepSeconds          float64
	dbPath                string
}

func main() {
	_ = godotenv.Load(".env")

	flags := &cliFlags{}
	rootCmd := &cobra.Command{
		Use:   "history4feed",
		Short: "Reconstruct a blog's full post history from web-archive snapshots",
		Long: "history4feed mines the Wayback Machine for historical snapshots of a blog's " +
			"RSS/Atom feed, merges them with the live feed and any prior run's state, runs full-text " +
			"extraction on new posts, and synthesizes a canonical feed document.\n\n" +
			"With no flags, every previously reconstructed feed without a fixed upper date bound is updated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&flags.url, "url", "", "reconstruct (or update) the feed at this URL")
	rootCmd.Flags().BoolVar(&flags.list, "list", false, "list all reconstructed feeds")
	rootCmd.Flags().BoolVar(&flags.delete, "delete", false, "delete the feed given by --url, cascading to its posts")
	rootCmd.Flags().StringVar(&flags.earliestEntry, "earliest_entry", "2000-01-01", "earliest post date to include (ISO date)")
	rootCmd.Flags().StringVar(&flags.latestEntry, "latest_entry", "", "latest post date to include (ISO date, default now)")
	rootCmd.Flags().BoolVar(&flags.ignoreLiveFeedEntries, "ignore_live_feed_entries", false, "only use archived snapshots, never the live feed")
	rootCmd.Flags().BoolVar(&flags.pretty, "pretty", false, "pretty-print the synthesized feed document")
	rootCmd.Flags().BoolVar(&flags.fullText, "full_text", true, "reserved: full-text enrichment of new posts always runs")
	rootCmd.Flags().IntVar(&flags.retries, "retries", 3, "retry count recorded with the feed (the fetcher's retry limit comes from HTTP_FETCH_MAX_RETRIES)")
	rootCmd.Flags().Float64Var(&flags.sleepSeconds, "sleep_seconds", 2, "seconds to sleep between article fetches")
	rootCmd.Flags().StringVar(&flags.dbPath, "db", db.DefaultPath, "path to the sqlite store")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, flags *cliFlags) error {
	now := time.Now().UTC()
	runLogger, closeLog, err := logging.NewRunLogger(now)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(runLogger)

	database, err := db.Open(flags.dbPath)
	if err != nil {
		return fmt.Errorf("run: opening store: %w", err)
	}
	defer func() { _ = database.Close() }()

	feedRepo := sqlite.NewFeedRepo(database)
	blogRepo := sqlite.NewBlogRepo(database)
	postRepo := sqlite.NewPostRepo(database)

	if flags.list {
		return listFeeds(ctx, feedRepo)
	}

	if flags.url == "" {
		svc := newOrchestrator(feedRepo, blogRepo, postRepo, 0)
		svc.UpdateAll(ctx)
		return nil
	}

	if flags.delete {
		if err := feedRepo.DeleteByURL(ctx, flags.url); err != nil {
			return fmt.Errorf("run: deleting feed: %w", err)
		}
		return nil
	}

	earliestEntry, err := parseDateArg(flags.earliestEntry, "--earliest_entry")
	if err != nil {
		return err
	}
	latestArg := flags.latestEntry
	if latestArg == "" {
		latestArg = now.Format(dateArgLayout)
	}
	latestEntry, err := parseDateArg(latestArg, "--latest_entry")
	if err != nil {
		return err
	}

	existing, err := feedRepo.ByURL(ctx, flags.url)
	if err != nil {
		return fmt.Errorf("run: looking up feed: %w", err)
	}
	isUpdate := existing != nil

	svc := newOrchestrator(feedRepo, blogRepo, postRepo, flags.sleepSeconds)
	req := reconstruct.Request{
		URL:      flags.url,
		FromDate: isoToCompact(*earliestEntry),
		ToDate:   isoToCompact(*latestEntry),
		IsUpdate: isUpdate,
		Settings: entity.Settings{
			Retries:               flags.retries,
			SleepSeconds:          flags.sleepSeconds,
			EarliestEntry:         earliestEntry,
			LatestEntry:           latestEntry,
			IgnoreLiveFeedEntries: flags.ignoreLiveFeedEntries,
			Pretty:                flags.pretty,
		},
	}
	if err := svc.ReconstructURL(ctx, req); err != nil {
		return err
	}
	return nil
}

func newOrchestrator(feedRepo repository.FeedRepository, blogRepo repository.BlogRepository, postRepo repository.PostRepository, sleepSeconds float64) *reconstruct.Service {
	cfg, warnings := httpfetch.LoadConfigFromEnv()
	for _, w := range warnings {
		slog.Warn("http fetch config", slog.String("detail", w))
	}
	fetcher, err := httpfetch.New(cfg)
	if err != nil {
		slog.Error("failed to build http fetcher, falling back to defaults", slog.Any("error", err))
		fetcher, _ = httpfetch.New(httpfetch.DefaultConfig())
	}

	ext := extractor.New(fetcher)
	if sleepSeconds <= 0 {
		sleepSeconds = 2
	}
	enricher := enrich.New(ext, sleepSeconds)

	return reconstruct.New(fetcher, enricher, feedRepo, blogRepo, postRepo)
}

func listFeeds(ctx context.Context, feedRepo repository.FeedRepository) error {
	rows, err := feedRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("listFeeds: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintln(w, "ID\tKIND\tURL\tLAST_RUN\tEARLIEST_POST\tLATEST_POST")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.FeedID, r.FeedKind, r.FeedURL, r.LastRun.Format(time.RFC3339),
			formatOptionalTime(r.EarliestPost), formatOptionalTime(r.LatestPost))
	}
	return nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateArgLayout)
}

func parseDateArg(value, flagName string) (*string, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateArgLayout, value)
	if err != nil {
		return nil, entity.NewError(entity.KindParseArgument, "parseDateArg", value,
			fmt.Errorf("unable to parse %s=%q as a date: %w", flagName, value, err))
	}
	s := t.Format(dateArgLayout)
	return &s, nil
}

func isoToCompact(iso string) string {
	return strings.ReplaceAll(iso, "-", "")
}
