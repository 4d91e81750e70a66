// Package cli wires the scholartrend commands: configuration, logging and
// the concrete fetcher behind the counter.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/FranksOps/scholartrend/internal/config"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what PersistentPreRunE resolves for the subcommands.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewRootCommand builds the command tree. The root command counts, so
// `scholartrend Tungsten` and `scholartrend count Tungsten` are equivalent.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), now: time.Now}

	root := &cobra.Command{
		Use:   "scholartrend [keywords...]",
		Short: "Count Google Scholar results per year for a set of keywords",
		Long: `scholartrend queries Google Scholar once per publication year and
reports how the number of results for the keywords changes over time.
Results can be written as CSV and plotted as a PNG trend chart.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
		RunE:              a.runCount,
	}

	flags := root.PersistentFlags()
	now := a.now()

	flags.String("config", "", "path to a YAML/TOML/JSON config file")
	flags.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")

	flags.Int(config.KeySince, 2020, "first year to count")
	flags.Int(config.KeyTo, now.Year(), "last year to count")
	flags.String(config.KeyFilter, "AND", "how multiple keywords combine (AND or OR)")
	flags.Bool(config.KeyPlot, false, "write a PNG trend plot")
	flags.String(config.KeyCSV, "", "CSV file name to write in the output directory")
	flags.String(config.KeyOutputDir, ".", "directory for CSV, plot and search info")
	flags.String(config.KeyInfoFile, "search_info.txt", "search info file name; empty disables it")
	flags.Bool(config.KeyEntries, false, "also scrape the author/venue/year line of each result")
	flags.String(config.KeyReport, config.ReportText, "run summary format (text, json, html or none)")

	flags.String(config.KeyFetcher, config.FetcherHTTP, "how pages are fetched (http or browser)")
	flags.Duration(config.KeyDelayMin, time.Second, "minimum delay between years")
	flags.Duration(config.KeyDelayMax, 0, "maximum delay between years; above min it is jittered (default: delay-min)")
	flags.Duration(config.KeyTimeout, 30*time.Second, "per-page fetch timeout")
	flags.String(config.KeyFingerprint, "chrome", "TLS fingerprint of the http fetcher (chrome, firefox, safari, random, go)")
	flags.String(config.KeyUAStrategy, "sticky", "User-Agent rotation (sticky, sequential, random)")
	flags.Bool(config.KeyCookies, true, "keep cookies across requests")
	flags.String(config.KeyBaseURL, "https://scholar.google.com", "search front end")
	flags.Bool(config.KeyRespectRobots, false, "refuse URLs disallowed by robots.txt")
	flags.String(config.KeyWaitSelector, "", "element the browser fetcher waits for")
	flags.Bool(config.KeyShowBrowser, false, "show the browser window")
	flags.String(config.KeyChromePath, "", "Chrome executable for the browser fetcher")
	flags.Int(config.KeyMetricsPort, 0, "serve Prometheus metrics on this port; 0 disables")

	config.SetDefaults(a.v, now)
	config.BindEnv(a.v)
	// Binding only fails for a nil flag set.
	_ = a.v.BindPFlags(flags)

	root.AddCommand(newCountCommand(a), newCheckCommand(a))
	return root
}

func (a *app) initialize(cmd *cobra.Command, args []string) error {
	// A missing .env is fine.
	_ = godotenv.Load()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger returns a slog.Logger rendering through charmbracelet/log.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", config.ErrInvalid, level)
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(handler), nil
}
