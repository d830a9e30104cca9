// Package main force-recomputes credit scores for a list of borrowers.
//
// Usage:
//
//	rescore --ids b1,b2,b3
//	rescore --ids-file borrowers.txt
//	cat borrowers.txt | rescore
//
// Each borrower is evaluated once, sequentially, through the same engine the
// service uses. One line per borrower is printed: id, outcome, total, tier.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"credit-risk-engine/internal/app"
	"credit-risk-engine/internal/config"
	"credit-risk-engine/internal/engine"
)

// scorer is the engine surface rescore needs.
type scorer interface {
	Read(ctx context.Context, borrowerID string, recalculate bool) (*engine.ReadResult, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ids := flag.String("ids", "", "Comma-separated borrower ids")
	idsFile := flag.String("ids-file", "", "File with one borrower id per line (default: stdin)")
	useMemory := flag.Bool("use-memory", cfg.Storage.UseMemory, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	cfg.Storage.UseMemory = *useMemory
	logger := config.NewLogger(cfg.Log, os.Stderr)

	// The operator tool does not serve HTTP, so no session secret is needed
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = strings.Repeat("-", 16)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	borrowers, err := readIDs(*ids, *idsFile, os.Stdin)
	if err != nil {
		logger.Fatal().Err(err).Msg("read borrower ids")
	}
	if len(borrowers) == 0 {
		logger.Fatal().Msg("no borrower ids given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open stores")
	}
	defer cleanup()

	failed := rescore(ctx, app.NewEngine(cfg, stores, logger), borrowers, os.Stdout, logger)
	if failed > 0 {
		logger.Error().Int("failed", failed).Int("total", len(borrowers)).Msg("rescore finished with failures")
		cleanup()
		os.Exit(1)
	}
}

// rescore evaluates every borrower in order and returns the failure count.
// It stops early when ctx ends.
func rescore(ctx context.Context, s scorer, borrowers []string, out io.Writer, logger zerolog.Logger) int {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "BORROWER\tOUTCOME\tTOTAL\tTIER")
	failed := 0
	for _, id := range borrowers {
		if ctx.Err() != nil {
			failed++
			continue
		}
		res, err := s.Read(ctx, id, true)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("borrower_id", id).Msg("rescore failed")
			fmt.Fprintf(tw, "%s\terror\t-\t-\n", id)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", id, res.Outcome, res.Record.Total, res.Record.Tier)
	}
	return failed
}

// readIDs collects borrower ids from the flag, the file, or stdin in that
// order of precedence. Blank lines and duplicates are dropped.
func readIDs(list, file string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	switch {
	case list != "":
		r = strings.NewReader(strings.ReplaceAll(list, ",", "\n"))
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open ids file: %w", err)
		}
		defer f.Close()
		r = f
	default:
		r = stdin
	}

	seen := make(map[string]struct{})
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	return ids, nil
}
