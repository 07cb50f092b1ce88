package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/export"
	"forex-journal/internal/journal"
	"forex-journal/internal/models"
	"forex-journal/internal/server"
)

// addJournalCommands adds trade journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAddCmd(app))
	rootCmd.AddCommand(newListCmd(app))
	rootCmd.AddCommand(newShowCmd(app))
	rootCmd.AddCommand(newDeleteCmd(app))
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
}

func newAddCmd(app *App) *cobra.Command {
	var form journal.TradeForm
	var screenshots []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a trade",
		Long: `Record a trade in the journal.

Date, pair, type and result are required. Screenshots are attached per
timeframe as --screenshot daily=chart.png and stored inline.`,
		Example: `  journal add --date 2024-01-10 --pair EUR/USD --type long --result win --rr 2
  journal add --date 2024-01-11 --pair GBP/USD --session London --type short \
      --setup PT-POF --h4 pro --m15 "flip refined" --entry "1st tap" \
      --result loss --rr 1.5 --screenshot m15=entry.png --notes "Faded the open"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			if len(screenshots) > 0 {
				form.Screenshots = make(map[string]string, len(screenshots))
				for _, arg := range screenshots {
					tf, path, err := journal.ParseScreenshotFlag(arg)
					if err != nil {
						return err
					}
					dataURL, err := journal.LoadScreenshot(path)
					if err != nil {
						return err
					}
					form.Screenshots[string(tf)] = dataURL
				}
			}

			rec, err := svc.Create(ctx, form)
			if err != nil {
				reportValidation(output, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rec)
			}
			output.Success("✓ Trade added successfully")
			output.Printf("  %s  %s %s %s  %s\n",
				output.DimText(ShortID(rec.ID)), rec.Date, rec.Pair, strings.ToUpper(string(rec.Type)), output.Result(rec.Result))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Date, "date", "", "trade date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&form.Pair, "pair", "", "currency pair, e.g. EUR/USD")
	cmd.Flags().StringVar(&form.Session, "session", "", "session: London, New York, Tokyo, Sydney")
	cmd.Flags().StringVar(&form.Type, "type", "", "trade direction: long or short")
	cmd.Flags().StringVar(&form.Setup, "setup", "", "setup: PT-POF, PT-COF, CT-POF, CT-COF")
	cmd.Flags().StringVar(&form.H4, "h4", "", "4H bias: pro or counter")
	cmd.Flags().StringVar(&form.M15, "m15", "", "15M zone: extreme refined, flip refined, overall POI")
	cmd.Flags().StringVar(&form.Entry, "entry", "", "entry trigger: 1m ofra, 1st tap sweep, 1st tap")
	cmd.Flags().StringVar(&form.Result, "result", "", "outcome: win or loss")
	cmd.Flags().StringVar(&form.RiskReward, "rr", "", "reward multiple of risk, e.g. 2 or 2.5R")
	cmd.Flags().StringVar(&form.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringArrayVar(&screenshots, "screenshot", nil, "attach a chart as timeframe=path (repeatable)")

	return cmd
}

// reportValidation prints field-level validation failures.
func reportValidation(output *Output, err error) {
	var verr *apperrors.ValidationError
	if !apperrors.As(err, &verr) {
		return
	}
	msg := "Validation failed"
	if journal.MissingRequired(err) {
		msg = journal.RequiredFieldsMessage
	}
	if output.IsJSON() {
		output.JSON(map[string]interface{}{"error": msg, "fields": verr.Fields})
		return
	}
	output.Error("%s", msg)
	for _, f := range verr.Fields {
		output.Printf("  - %s: %s\n", f.Field, f.Message)
	}
}

func newListCmd(app *App) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled trades",
		Long: `List trades in the order they were recorded.

--recent shows only the newest trades, newest first. Without a value it
uses ui.recent_count from the configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			trades := svc.List()
			if cmd.Flags().Changed("recent") {
				n := recent
				if n < 0 {
					n = app.Config.UI.RecentCount
				}
				trades = svc.Recent(n)
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades recorded yet")
				return nil
			}

			table := NewTable(output, "ID", "DATE", "PAIR", "TYPE", "SETUP", "RESULT", "R:R", "NOTES")
			for _, t := range trades {
				table.AddRow(
					ShortID(t.ID),
					t.Date,
					string(t.Pair),
					strings.ToUpper(string(t.Type)),
					OrDash(string(t.Setup)),
					output.Result(t.Result),
					OrDash(t.RiskReward),
					TruncateString(t.Notes, 30),
				)
			}
			table.Render()
			output.Dim("%d trade(s)", len(trades))
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent trades")
	cmd.Flags().Lookup("recent").NoOptDefVal = "-1"

	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a trade in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			rec, err := findTrade(svc, args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(rec)
			}

			output.Box(fmt.Sprintf("Trade %s", rec.ID), []string{
				fmt.Sprintf("Date:     %s", rec.Date),
				fmt.Sprintf("Pair:     %s", rec.Pair),
				fmt.Sprintf("Session:  %s", OrDash(string(rec.Session))),
				fmt.Sprintf("Type:     %s", strings.ToUpper(string(rec.Type))),
				fmt.Sprintf("Setup:    %s", OrDash(string(rec.Setup))),
				fmt.Sprintf("4H Bias:  %s", OrDash(string(rec.H4))),
				fmt.Sprintf("15M Zone: %s", OrDash(string(rec.M15))),
				fmt.Sprintf("Entry:    %s", OrDash(string(rec.Entry))),
				fmt.Sprintf("Result:   %s", output.Result(rec.Result)),
				fmt.Sprintf("R:R:      %s", OrDash(rec.RiskReward)),
			})

			if rec.Notes != "" {
				output.Println()
				output.Bold("Notes")
				output.Println(rec.Notes)
			}

			if len(rec.Screenshots) > 0 {
				output.Println()
				output.Bold("Screenshots")
				for _, tf := range models.AllTimeframes() {
					if url, ok := rec.Screenshots[tf]; ok {
						output.Printf("  %-6s %s\n", tf, output.DimText(FormatBytes(len(url))))
					}
				}
			}
			return nil
		},
	}
}

// findTrade resolves a full id or a unique id prefix as shown by list. A
// blank id would prefix-match every trade, so it is rejected.
func findTrade(svc *journal.Service, id string) (models.TradeRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.TradeRecord{}, apperrors.NewValidationError("id", id, "is required")
	}
	if rec, err := svc.Get(id); err == nil {
		return rec, nil
	}

	var matches []models.TradeRecord
	for _, t := range svc.List() {
		if strings.HasPrefix(t.ID, id) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.TradeRecord{}, fmt.Errorf("%w: %s", apperrors.ErrTradeNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return models.TradeRecord{}, apperrors.NewValidationError("id", id, fmt.Sprintf("prefix matches %d trades", len(matches)))
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a trade",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			target, err := findTrade(svc, args[0])
			if err != nil {
				return err
			}

			rec, err := svc.Delete(ctx, target.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"deleted": rec.ID})
			}
			output.Success("✓ Trade deleted: %s", rec.ID)
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show journal analytics",
		Long: `Show win rate, average risk/reward and breakdowns by setup, pair,
month and week. --detailed adds the setup-by-pair and pair-by-setup tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			snap := svc.Snapshot()
			if output.IsJSON() {
				return output.JSON(snap)
			}

			output.Box("Journal Summary", []string{
				fmt.Sprintf("Total Trades:  %d", snap.TotalTrades),
				fmt.Sprintf("Wins / Losses: %s / %s", output.Green(fmt.Sprint(snap.Wins)), output.Red(fmt.Sprint(snap.Losses))),
				fmt.Sprintf("Win Rate:      %s", output.WinRate(snap.WinRate, snap.TotalTrades)),
				fmt.Sprintf("Avg R:R:       %s", FormatRR(snap.AvgRiskReward)),
			})
			if snap.TotalTrades == 0 {
				output.Info("No trades recorded yet")
				return nil
			}

			output.Println()
			output.Bold("By Setup")
			setups := NewTable(output, "SETUP", "TRADES", "WINS", "WIN RATE")
			for _, s := range snap.SetupStats {
				setups.AddRow(string(s.Setup), fmt.Sprint(s.Total), fmt.Sprint(s.Wins), output.WinRate(s.WinRate, s.Total))
			}
			setups.Render()

			output.Println()
			output.Bold("By Pair")
			pairs := NewTable(output, "PAIR", "TRADES", "WINS", "WIN RATE")
			for _, p := range snap.PairStats {
				pairs.AddRow(string(p.Pair), fmt.Sprint(p.Total), fmt.Sprint(p.Wins), output.WinRate(p.WinRate, p.Total))
			}
			pairs.Render()

			if detailed {
				output.Println()
				output.Bold("Setup Details")
				sd := NewTable(output, "SETUP", "TRADES", "WIN RATE", "AVG R:R", "BY PAIR")
				for _, d := range snap.SetupDetails {
					var parts []string
					for _, p := range d.Pairs {
						if p.Total > 0 {
							parts = append(parts, fmt.Sprintf("%s %s", p.Pair, FormatCount(p.Wins, p.Total)))
						}
					}
					sd.AddRow(string(d.Setup), fmt.Sprint(d.Total), output.WinRate(d.WinRate, d.Total), FormatRR(d.AvgRiskReward), OrDash(strings.Join(parts, ", ")))
				}
				sd.Render()

				output.Println()
				output.Bold("Pair Details")
				pd := NewTable(output, "PAIR", "TRADES", "WIN RATE", "AVG R:R", "BY SETUP")
				for _, d := range snap.PairDetails {
					var parts []string
					for _, s := range d.Setups {
						if s.Total > 0 {
							parts = append(parts, fmt.Sprintf("%s %s", s.Setup, FormatCount(s.Wins, s.Total)))
						}
					}
					pd.AddRow(string(d.Pair), fmt.Sprint(d.Total), output.WinRate(d.WinRate, d.Total), FormatRR(d.AvgRiskReward), OrDash(strings.Join(parts, ", ")))
				}
				pd.Render()
			}

			output.Println()
			output.Bold("Monthly")
			monthly := NewTable(output, "MONTH", "WINS", "LOSSES", "TOTAL")
			for _, b := range snap.Monthly {
				monthly.AddRow(b.Label, output.Green(fmt.Sprint(b.Wins)), output.Red(fmt.Sprint(b.Losses)), fmt.Sprint(b.Total))
			}
			monthly.Render()

			output.Println()
			output.Bold("Weekly")
			weekly := NewTable(output, "WEEK OF", "WINS", "LOSSES", "TOTAL")
			for _, b := range snap.Weekly {
				weekly.AddRow(b.Label, output.Green(fmt.Sprint(b.Wins)), output.Red(fmt.Sprint(b.Losses)), fmt.Sprint(b.Total))
			}
			weekly.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "include setup/pair cross breakdowns")

	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trades to CSV or Excel",
		Long: `Export the journal. CSV goes to stdout unless --out is given. Excel
workbooks contain a Trades sheet and an Analytics sheet and need --out.`,
		Example: `  journal export > trades.csv
  journal export --out journal.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			f, err := resolveFormat(format, out)
			if err != nil {
				return err
			}
			if f == export.FormatXLSX && out == "" {
				return apperrors.NewValidationError("out", "", "xlsx export needs --out")
			}

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}
			trades := svc.List()

			var buf bytes.Buffer
			switch f {
			case export.FormatXLSX:
				err = export.WriteXLSX(&buf, trades, svc.Snapshot())
			default:
				err = export.WriteCSV(&buf, trades)
			}
			if err != nil {
				return err
			}

			if out == "" {
				_, err = io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"path": out, "format": f, "trades": len(trades)})
			}
			output.Success("✓ Exported %d trade(s) to %s", len(trades), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (default: from --out extension, else csv)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")

	return cmd
}

func resolveFormat(format, path string) (export.Format, error) {
	if format != "" {
		return export.ParseFormat(format)
	}
	if path == "" {
		return export.FormatCSV, nil
	}
	return export.FormatFromPath(path)
}

func newImportCmd(app *App) *cobra.Command {
	var format string
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import trades from CSV or Excel",
		Long: `Import trades from a CSV file or the Trades sheet of an Excel workbook.

Every row is validated before anything is written. Rows whose id already
exists are skipped; --replace discards the current journal instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			f, err := resolveFormat(format, args[0])
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			var forms []journal.TradeForm
			switch f {
			case export.FormatXLSX:
				forms, err = export.ReadXLSX(file)
			default:
				forms, err = export.ReadCSV(file)
			}
			if err != nil {
				return err
			}

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			res, err := svc.Import(ctx, forms, replace)
			if err != nil {
				reportValidation(output, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Success("✓ Imported %d trade(s)", res.Imported)
			if res.Skipped > 0 {
				output.Warning("Skipped %d trade(s) already in the journal", res.Skipped)
			}
			if res.Replaced {
				output.Dim("Previous journal replaced")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (default: from file extension)")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the journal instead of appending")

	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over a JSON API",
		Long: `Serve the journal over HTTP until interrupted.

Routes:
  GET    /api/health
  GET    /api/analytics
  GET    /api/trades[?recent=N]
  POST   /api/trades
  GET    /api/trades/{id}
  DELETE /api/trades/{id}
  GET    /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			svc, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			cfg := app.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}

			if !output.IsJSON() {
				output.Info("Serving journal on http://%s (Ctrl+C to stop)", cfg.Addr)
			}
			return server.New(svc, cfg, app.Config.UI.RecentCount, app.Logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")

	return cmd
}
