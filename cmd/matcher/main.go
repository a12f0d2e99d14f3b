package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/klu-lostfound/internal/advisor"
	"github.com/klu-lostfound/internal/config"
	"github.com/klu-lostfound/internal/db"
	"github.com/klu-lostfound/internal/imagesim"
	import_pkg "github.com/klu-lostfound/internal/import"
	"github.com/klu-lostfound/internal/logging"
	"github.com/klu-lostfound/internal/match"
	"github.com/klu-lostfound/internal/search"
)

var (
	// Global database connection, opened by commands that need it
	dbConn *db.Connection

	matching config.Matching
	fsys     = afero.NewOsFs()
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:   "matcher",
		Short: "Campus lost and found matching",
		Long:  `Pairs lost item reports with found item reports using photo, identification and text similarity`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Setup(config.LoadLogging()); err != nil {
				return err
			}
			m, err := config.LoadMatching()
			if err != nil {
				return err
			}
			matching = m
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if dbConn != nil {
				dbConn.Close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createDBCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createReportCmd())
	rootCmd.AddCommand(createCompareImagesCmd())
	rootCmd.AddCommand(createSearchCmd())
	rootCmd.AddCommand(createUrgentCmd())
	rootCmd.AddCommand(createExpireCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func openStore() (*db.ReportStore, error) {
	if dbConn == nil {
		conn, err := db.NewConnection()
		if err != nil {
			return nil, err
		}
		dbConn = conn
	}
	return db.NewReportStore(dbConn.DB), nil
}

// loadReports reads reports from a file when one is given, otherwise from
// the database
func loadReports(ctx context.Context, file string, typ match.ReportType, activeOnly bool) ([]match.Report, error) {
	if file == "" {
		store, err := openStore()
		if err != nil {
			return nil, err
		}
		if activeOnly {
			return store.ListActive(ctx, typ)
		}
		return store.ListReports(ctx, typ)
	}

	all, rejected, err := import_pkg.ReadReports(fsys, file)
	if err != nil {
		return nil, err
	}
	for _, re := range rejected {
		log.Warn().Int("row", re.Row).Err(re.Err).Msg("skipping invalid report row")
	}

	var out []match.Report
	for _, r := range all {
		if typ != "" && r.Type != typ {
			continue
		}
		if activeOnly && !r.Active() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newEngine() *match.Engine {
	images := imagesim.NewComparator(afero.NewBasePathFs(fsys, matching.UploadDir), imagesim.DefaultConfig())
	return match.NewEngine(match.EngineConfig{Images: images})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(results []match.Result, asJSON bool) error {
	if asJSON {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No matches found")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%3d. %s\n", i+1, match.GetExplanation(r))
	}
	fmt.Printf("\n%d matches\n", len(results))
	return nil
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			fmt.Println("Database connection successful!")

			reports, err := store.ListReports(cmd.Context(), "")
			if err != nil {
				log.Error().Err(err).Msg("error counting reports")
				return nil
			}
			fmt.Printf("Reports loaded: %d\n", len(reports))
			return nil
		},
	}
}

func createDBCmd() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the reports and match history tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Schema ready")
			return nil
		},
	})
	return dbCmd
}

// createImportCmd creates the import subcommand
func createImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [filename]",
		Short: "Import reports from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			stats, err := import_pkg.NewImporter(fsys, store).ImportReports(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Import complete: %d reports imported, %d rejected\n", stats.Imported, len(stats.Rejected))
			return nil
		},
	}
}

func createMatchCmd() *cobra.Command {
	var (
		file        string
		exploratory bool
		enhanced    bool
		threshold   float64
		asJSON      bool
		save        bool
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match every active lost report against every active found report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := matching.Options()
			mode := "standard"
			if exploratory {
				opts = matching.ExploratoryOptions()
				mode = "exploratory"
			}
			if cmd.Flags().Changed("threshold") {
				opts.InclusionThreshold = threshold
			}
			opts.Debug = opts.Debug || debug

			lost, err := loadReports(ctx, file, match.Lost, true)
			if err != nil {
				return err
			}
			found, err := loadReports(ctx, file, match.Found, true)
			if err != nil {
				return err
			}

			engine := newEngine()
			var results []match.Result
			if enhanced {
				mode = "enhanced"
				results = engine.EnhancedMatches(ctx, lost, found, opts)
			} else {
				results = engine.FindMatches(ctx, lost, found, opts)
			}

			if save && len(results) > 0 {
				store, err := openStore()
				if err != nil {
					return err
				}
				runID, err := store.SaveMatchRun(ctx, mode, results)
				if err != nil {
					return err
				}
				log.Info().Str("run_id", runID.String()).Msg("match run recorded")
			}

			return printResults(results, asJSON)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read reports from a CSV or JSON file instead of the database")
	cmd.Flags().BoolVar(&exploratory, "exploratory", false, "Use the exploratory threshold")
	cmd.Flags().BoolVar(&enhanced, "enhanced", false, "Rank by blended name, description and location similarity")
	cmd.Flags().Float64Var(&threshold, "threshold", 30, "Minimum percentage to report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Record the run in match history")
	cmd.Flags().BoolVar(&debug, "debug", false, "Print debug output")

	return cmd
}

func createReportCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report [id]",
		Short: "Match one report against active reports of the opposite type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid report id %q", args[0])
			}

			all, err := loadReports(ctx, file, "", false)
			if err != nil {
				return err
			}

			var (
				report match.Report
				ok     bool
			)
			for _, r := range all {
				if r.ID == id {
					report, ok = r, true
					break
				}
			}
			if !ok {
				return fmt.Errorf("report %d: %w", id, db.ErrReportNotFound)
			}

			results := newEngine().FindMatchesFor(ctx, report, all, matching.Options())
			return printResults(results, asJSON)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read reports from a CSV or JSON file instead of the database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func createCompareImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare-images [image-a] [image-b]",
		Short: "Compare two item photos in the upload directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := imagesim.NewComparator(afero.NewBasePathFs(fsys, matching.UploadDir), imagesim.DefaultConfig())
			res, err := images.Compare(args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func createSearchCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search reports by keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := loadReports(cmd.Context(), file, "", false)
			if err != nil {
				return err
			}

			hits := search.NewSearcher(search.DefaultConfig(), nil).Search(strings.Join(args, " "), reports)
			if len(hits) == 0 {
				fmt.Println("No reports found")
				return nil
			}
			for _, h := range hits {
				fmt.Printf("#%d %-6s %-30s %.2f (%s) %s\n",
					h.Report.ID, h.Report.Type, h.Report.ItemName, h.Score, h.Relevance, strings.Join(h.Matched, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read reports from a CSV or JSON file instead of the database")
	return cmd
}

func createUrgentCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "urgent",
		Short: "List active reports needing immediate attention",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := loadReports(cmd.Context(), file, "", true)
			if err != nil {
				return err
			}

			urgent := advisor.New(advisor.DefaultConfig(), nil).UrgentReports(reports)
			for _, u := range urgent {
				fmt.Printf("%-8s %5.1f  #%d %s (%.1fh ago)\n",
					u.Level, u.Score, u.Report.ID, u.Report.ItemName, u.HoursPassed)
			}
			fmt.Printf("\n%d urgent reports\n", len(urgent))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read reports from a CSV or JSON file instead of the database")
	return cmd
}

// createExpireCmd creates a command that retires stale active reports
func createExpireCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Mark active reports older than the given age as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			n, err := store.ExpireReports(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Expired %d reports older than %d days\n", n, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "Age in days after which an active report expires")
	return cmd
}
