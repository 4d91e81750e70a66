package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/FranksOps/scholartrend/internal/config"
	"github.com/FranksOps/scholartrend/internal/export"
	"github.com/FranksOps/scholartrend/internal/metrics"
	"github.com/FranksOps/scholartrend/internal/parser"
	"github.com/FranksOps/scholartrend/internal/query"
	"github.com/FranksOps/scholartrend/internal/report"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newCountCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count <keywords...>",
		Short: "Count results per year and write the CSV, plot and summary",
		Example: `  scholartrend count Tungsten --since 2015 --to 2020 --plot --csv tungsten.csv
  scholartrend count "machine learning" "deep learning" --filter OR --fetcher browser`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runCount,
	}
}

func (a *app) runCount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	q, err := a.cfg.Query(args)
	if err != nil {
		return err
	}
	r := a.cfg.Range()
	if err := r.Validate(); err != nil {
		return err
	}
	provider, err := a.cfg.Provider()
	if err != nil {
		return err
	}

	if a.cfg.MetricsPort > 0 {
		srv := metrics.Start(a.cfg.MetricsPort, a.logger)
		defer srv.Stop(context.Background())
		a.logger.Info("serving metrics", "port", a.cfg.MetricsPort)
	}

	fetcher, err := a.newFetcher(ctx)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	counter, err := trend.NewCounter(trend.Config{
		Fetcher: fetcher,
		Parser:  parser.New(parser.Config{ExtractEntries: a.cfg.Entries}),
		URLs:    provider,
		Pacer:   a.cfg.Delay(),
		Logger:  a.logger,
		OnYear:  metrics.Observer(a.cfg.Fetcher),
	})
	if err != nil {
		return err
	}

	a.logger.Info("counting", "query", q.Expression(), "years", r.String(), "fetcher", a.cfg.Fetcher, "delay", a.cfg.Delay().String())
	start := a.now()
	rs, err := counter.Count(ctx, q, r)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	end := a.now()

	if degraded := rs.Degraded(); len(degraded) > 0 {
		a.logger.Warn("some years are degraded and recorded as zero", "degraded", len(degraded), "years", len(rs))
	}

	if err := a.writeOutputs(q, r, rs); err != nil {
		return err
	}

	return a.writeReport(cmd.OutOrStdout(), report.GenerateSummary(q, r, rs, start, end))
}

// writeOutputs runs the independent file outputs concurrently.
func (a *app) writeOutputs(q query.Query, r query.YearRange, rs trend.ResultSet) error {
	var g errgroup.Group
	dir := a.cfg.OutputDir

	if a.cfg.CSV != "" {
		g.Go(func() error {
			path := filepath.Join(dir, a.cfg.CSV)
			if err := export.WriteCSVFile(path, rs, export.LayoutFor(a.cfg.Entries)); err != nil {
				return fmt.Errorf("csv: %w", err)
			}
			a.logger.Info("wrote csv", "path", path)
			return nil
		})
	}

	if a.cfg.Plot {
		g.Go(func() error {
			path, err := export.PlotTrendFile(dir, q, r, rs)
			if err != nil {
				return err
			}
			a.logger.Info("wrote plot", "path", path)
			return nil
		})
	}

	if a.cfg.InfoFile != "" {
		g.Go(func() error {
			path := filepath.Join(dir, a.cfg.InfoFile)
			if err := export.WriteSearchInfoFile(path, q); err != nil {
				return err
			}
			a.logger.Debug("wrote search info", "path", path)
			return nil
		})
	}

	return g.Wait()
}

func (a *app) writeReport(w io.Writer, s report.Summary) error {
	switch a.cfg.Report {
	case config.ReportJSON:
		return report.WriteJSON(w, s)
	case config.ReportHTML:
		return report.WriteHTML(w, s)
	case config.ReportNone:
		return nil
	default:
		return report.WriteText(w, s)
	}
}
