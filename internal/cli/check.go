package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/FranksOps/scholartrend/internal/probe"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned when the provider could not be fetched or parsed.
var ErrCheckFailed = errors.New("check failed")

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [keyword]",
		Short: "Check that Scholar is reachable and its results still parse",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	keyword := probe.DefaultKeyword
	if len(args) == 1 {
		keyword = args[0]
	}

	provider, err := a.cfg.Provider()
	if err != nil {
		return err
	}

	fetcher, err := a.newFetcher(ctx)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	res, err := probe.Run(ctx, probe.Config{Fetcher: fetcher, Provider: provider, Logger: a.logger}, keyword)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	printCheck(cmd.OutOrStdout(), res)
	if !res.OK() {
		return ErrCheckFailed
	}
	return nil
}

func printCheck(w io.Writer, res probe.Result) {
	for _, s := range []struct {
		name string
		step probe.Step
	}{{"Home", res.Home}, {"Search", res.Search}} {
		switch {
		case s.step.Err == nil:
			fmt.Fprintf(w, "%-7s ok (%d, %s)\n", s.name+":", s.step.StatusCode, s.step.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(w, "%-7s %s: %v\n", s.name+":", s.step.Kind, s.step.Err)
			fmt.Fprintf(w, "         hint: %s\n", s.step.Kind.Hint())
		}
	}

	if res.Search.Err != nil {
		return
	}
	fmt.Fprintf(w, "Results: %d\n", res.Count)
	if len(res.Titles) == 0 {
		fmt.Fprintln(w, "No title elements found.")
		return
	}
	fmt.Fprintf(w, "Found %d titles.\n", len(res.Titles))
	for i, t := range res.Titles {
		fmt.Fprintf(w, "  %d. %s\n", i+1, t)
	}
}
