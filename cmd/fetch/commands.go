package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockfolio/internal/app"
	"stockfolio/internal/config"
	"stockfolio/internal/logging"
	"stockfolio/internal/money"
)

type options struct {
	configPath string
	debug      bool
	json       bool
	// loaded in PersistentPreRunE
	cfg config.Config
	log zerolog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "fetch",
		Short:         "Look up quotes and portfolio summaries from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			lc := cfg.Logging()
			lc.Pretty = true
			if opts.debug {
				lc.Level = "debug"
			}
			opts.cfg, opts.log = cfg, logging.New(lc)
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file (json, yaml or toml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "output in JSON format")

	root.AddCommand(newQuoteCmd(opts), newPortfolioCmd(opts))
	return root
}

func newQuoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Print the current quote of each symbol",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quotes, err := app.NewQuoteCache(opts.cfg.Quotes, opts.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if !opts.json {
				fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tCHANGE\tSTALE")
			}
			var failed int
			for _, symbol := range args {
				q, err := quotes.Get(cmd.Context(), symbol)
				if err != nil {
					opts.log.Error().Err(err).Str("symbol", symbol).Msg("lookup failed")
					failed++
					continue
				}
				if opts.json {
					if err := json.NewEncoder(out).Encode(q); err != nil {
						return err
					}
					continue
				}
				name := "-"
				if q.Name != nil {
					name = *q.Name
				}
				change := "-"
				if amount, pct, ok := q.Change(); ok {
					change = fmt.Sprintf("%s (%s%%)", money.Signed(amount, q.Currency), pct.StringFixed(2))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", q.Symbol, name, money.Format(q.Price, q.Currency), change, q.Stale)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d lookups failed", failed, len(args))
			}
			return nil
		},
	}
}

func newPortfolioCmd(opts *options) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Summarize every holding of an owner from the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Service.AggregatePortfolio(cmd.Context(), owner)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return json.NewEncoder(out).Encode(d)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tUNITS\tPAID\tVALUE\tDIVIDENDS\tP/L\tSTATUS")
			for _, v := range d.Holdings {
				s, cur := v.Summary, v.Summary.Currency
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					v.Holding.Symbol, s.UnitsHeld.String(),
					money.Format(s.TotalPaid, cur), money.Format(s.CurrentValue, cur),
					money.Format(s.TotalDividends, cur), money.Signed(s.ProfitLoss, cur), s.Status)
			}
			t := d.Totals
			fmt.Fprintf(tw, "TOTAL (%d)\t\t%s\t%s\t%s\t%s\t\n", t.Holdings,
				money.Fixed(t.TotalPaid), money.Fixed(t.CurrentValue),
				money.Fixed(t.TotalDividends), money.Fixed(t.ProfitLoss))
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner ID whose holdings are summarized")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
