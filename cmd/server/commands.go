package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JustJay7/court-case-tracker/internal/cache"
	"github.com/JustJay7/court-case-tracker/internal/caseid"
	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/fetcher"
	"github.com/JustJay7/court-case-tracker/internal/server"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

var (
	fetchType   string
	fetchNumber string
	fetchYear   int
	fetchCourt  string

	refreshCourt string
	refreshDate  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [CASE]",
	Short: "Look up one case and print the stored record",
	Long: `Look up one case the same way the API does: a stored successful record is
returned as is, anything else is fetched from the court and stored.

The case is either a canonical number such as "WP 5678/2023" or given with
--type, --number and --year.`,
	Example: `  court-case-tracker fetch "WP 5678/2023"
  court-case-tracker fetch --type CS --number 1234 --year 2023 --court "High Court of Delhi"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Pull a court's cause list for a day and store the new rows",
	RunE:  runRefresh,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchType, "type", "t", "", "case type, e.g. WP")
	fetchCmd.Flags().StringVarP(&fetchNumber, "number", "n", "", "case number")
	fetchCmd.Flags().IntVarP(&fetchYear, "year", "y", 0, "filing year")
	fetchCmd.Flags().StringVarP(&fetchCourt, "court", "c", "", "court name (default COURT_NAME)")

	refreshCmd.Flags().StringVarP(&refreshCourt, "court", "c", "", "court name (default COURT_NAME)")
	refreshCmd.Flags().StringVarP(&refreshDate, "date", "d", time.Now().Format("2006-01-02"), "listing date, YYYY-MM-DD")
}

func fetchIdentifier(args []string) (caseid.Identifier, error) {
	if len(args) == 1 {
		id, err := caseid.Parse(args[0])
		if err != nil {
			return caseid.Identifier{}, err
		}
		id.CourtName = fetchCourt
		return id, nil
	}
	if fetchType == "" || fetchNumber == "" || fetchYear == 0 {
		return caseid.Identifier{}, fmt.Errorf("give a case number argument or all of --type, --number and --year")
	}
	return caseid.Identifier{
		CaseType:   fetchType,
		CaseNumber: fetchNumber,
		Year:       fetchYear,
		CourtName:  fetchCourt,
	}, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	id, err := fetchIdentifier(args)
	if err != nil {
		return err
	}

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	cases, _ := server.Services(env.cfg, env.store, env.cache, env.adapter, env.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := cases.GetOrFetch(ctx, id)
	if err != nil {
		return err
	}

	if err := printJSON(cmd.OutOrStdout(), rec); err != nil {
		return err
	}

	if !rec.Success {
		msg := "unknown error"
		if rec.ErrorMessage != nil {
			msg = *rec.ErrorMessage
		}
		return fmt.Errorf("%s: %s", rec.CaseNumber, msg)
	}
	successColor.Fprintf(cmd.ErrOrStderr(), "✓ %s: %s\n", rec.CaseNumber, rec.CaseTitle)
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	_, causeList := server.Services(env.cfg, env.store, env.cache, env.adapter, env.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	court := refreshCourt
	if court == "" {
		court = env.cfg.CourtName
	}

	written, err := causeList.Refresh(ctx, court, refreshDate)
	if err != nil {
		return err
	}

	if written == 0 {
		warnColor.Fprintf(cmd.ErrOrStderr(), "⚠ no new rows for %s on %s\n", court, refreshDate)
		return nil
	}
	successColor.Fprintf(cmd.ErrOrStderr(), "✓ stored %d rows for %s on %s\n", written, court, refreshDate)
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cliEnv is everything a one-shot command needs besides the HTTP layer.
type cliEnv struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *database.Store
	cache   cache.Cache
	adapter fetcher.Adapter
}

func openEnv() (*cliEnv, error) {
	cfg, log, err := bootstrap()
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return newCLIEnv(cfg, log, database.NewStore(db))
}

// newCLIEnv takes ownership of store. Anything opened before a failure is
// released before the error is returned.
func newCLIEnv(cfg *config.Config, log *logger.Logger, store *database.Store) (*cliEnv, error) {
	e := &cliEnv{cfg: cfg, log: log, store: store}

	c, err := cache.New(cfg)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	e.cache = c

	adapter, err := server.NewAdapter(cfg, log)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to initialize court adapter: %w", err)
	}
	e.adapter = adapter

	return e, nil
}

func (e *cliEnv) close() {
	for _, v := range []interface{}{e.adapter, e.cache} {
		if closer, ok := v.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				e.log.Warn("Failed to release resource", "error", err)
			}
		}
	}
	if sqlDB, err := e.store.DB().DB(); err == nil {
		sqlDB.Close()
	}
	e.log.Sync()
}
