package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/export"
	"github.com/joseph-ayodele/receipts-parser/internal/utils"
)

func newDBHealthCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Check database connectivity and schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				if err := a.requireDB(); err != nil {
					return err
				}
				if err := a.db.HealthCheck(ctx, timeout, a.logger); err != nil {
					return err
				}
				ms, err := a.merchants.ListAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "database ok (%s), %d merchants\n", a.cfg.Database.Driver, len(ms))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "ping timeout")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <product>",
		Short: "List the stored price observations of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				if err := a.requireDB(); err != nil {
					return err
				}
				obs, err := a.outcomes.PriceHistory(ctx, args[0])
				if err != nil {
					return err
				}
				ms, err := a.merchants.ListAll(ctx)
				if err != nil {
					return err
				}
				names := make(map[uuid.UUID]string, len(ms))
				for _, m := range ms {
					names[m.ID] = m.DisplayName
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tMERCHANT\tPRICE")
				for _, o := range obs {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ObservedDate.Format("2006-01-02"), names[o.MerchantID], o.Price.Text('f'))
				}
				return tw.Flush()
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out, from, to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored receipts to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			fromDate, err := parseDateFlag("from", from)
			if err != nil {
				return err
			}
			toDate, err := parseDateFlag("to", to)
			if err != nil {
				return err
			}
			if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
				return fmt.Errorf("%w: --to must not be before --from", common.ErrInvalidInput)
			}
			return opts.withApp(ctx, func(a *app) error {
				if err := a.requireDB(); err != nil {
					return err
				}
				b, err := export.NewService(a.outcomes, a.merchants, a.logger).ReceiptsXLSX(ctx, fromDate, toDate)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, b, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "receipts.xlsx", "output XLSX path")
	cmd.Flags().StringVar(&from, "from", "", "first purchase date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last purchase date, YYYY-MM-DD")
	return cmd
}

func parseDateFlag(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := utils.ParseYMD(v)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s: %v", common.ErrInvalidInput, name, err)
	}
	return &t, nil
}
