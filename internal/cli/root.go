// Package cli implements quotectl, the operator command for running quotes and
// inspecting pricing configuration without the HTTP server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pzmarket/quote-backend/config"
	"github.com/pzmarket/quote-backend/internal/app"
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Version is reported by --version
const Version = "1.0.0"

type loader func() (*config.Config, error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(config.Load)
}

func newRootCommand(load loader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "quotectl",
		Short:   "Run invoice savings quotes and inspect segment pricing",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newQuoteCommand(load),
		newEstimateCommand(load),
		newSegmentsCommand(load),
		newCatalogCommand(load),
	)

	return rootCmd
}

// withApp loads configuration, wires the services and runs fn
func withApp(ctx context.Context, load loader, fn func(*app.App) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(application)
}

func newQuoteCommand(load loader) *cobra.Command {
	var (
		file     string
		category string
		staff    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compare an invoice's market prices against platform prices",
		Long:  "Extracts line items from --file (PDF or image) and prices them for --category. Without --file the demo dataset is used.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *domain.Document
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				doc = &domain.Document{Data: data, MIMEType: mime.TypeByExtension(filepath.Ext(file))}
			}

			return withApp(cmd.Context(), load, func(a *app.App) error {
				result, err := a.Quotes.Generate(cmd.Context(), &domain.QuoteRequest{Document: doc, Category: category})
				if err != nil {
					return err
				}
				if asJSON {
					if !staff {
						for i := range result.Items {
							result.Items[i].ProcurementTargetRate = decimal.Zero
						}
					}
					return writeJSON(cmd.OutOrStdout(), result)
				}
				return writeResult(cmd.OutOrStdout(), result, staff)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "invoice document to analyze")
	cmd.Flags().StringVarP(&category, "category", "c", "", "business category (exact name, e.g. \"Sporting club\")")
	cmd.Flags().BoolVar(&staff, "staff", false, "include procurement target rates")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newEstimateCommand(load loader) *cobra.Command {
	var (
		spend    string
		category string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Project savings from a weekly produce spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weekly, err := decimal.NewFromString(spend)
			if err != nil {
				return domain.NewValidationError("spend", "must be a decimal number")
			}

			return withApp(cmd.Context(), load, func(a *app.App) error {
				estimate, err := a.Savings.EstimateSavings(cmd.Context(), weekly, category)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Category\t%s\n", estimate.Category)
				fmt.Fprintf(w, "Target savings\t%.2f%%\n", estimate.TargetSavingsPercent)
				fmt.Fprintf(w, "Weekly spend\t%s\n", estimate.WeeklySpend.StringFixed(2))
				fmt.Fprintf(w, "Weekly savings\t%s\n", estimate.WeeklySavings.StringFixed(2))
				fmt.Fprintf(w, "Annual savings\t%s\n", estimate.AnnualSavings.StringFixed(2))
				fmt.Fprintf(w, "Platform weekly spend\t%s\n", estimate.PlatformWeeklySpend.StringFixed(2))
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&spend, "spend", "s", "", "weekly produce spend")
	cmd.Flags().StringVarP(&category, "category", "c", "", "business category")
	_ = cmd.MarkFlagRequired("spend")
	return cmd
}

func newSegmentsCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "List segment savings configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), load, func(a *app.App) error {
				configs, err := a.Segments.All(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tSLUG\tTARGET %\tPROCUREMENT %")
				for _, category := range domain.Categories() {
					cfg, ok := configs[category]
					if !ok {
						fmt.Fprintf(w, "%s\t%s\t-\t-\n", category, category.Slug())
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\n", category, category.Slug(), cfg.TargetSavingsPercent, cfg.ProcurementTargetPercent)
				}
				return w.Flush()
			})
		},
	}
}

func newCatalogCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), load, func(a *app.App) error {
				products, err := a.Catalog.List(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUNIT\tPRICE")
				for _, p := range products {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Unit, p.DefaultUnitPrice.StringFixed(2))
				}
				return w.Flush()
			})
		},
	}
}

func writeResult(out io.Writer, result *domain.ComparisonResult, staff bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := "ITEM\tQTY\tMARKET\tPLATFORM\tMATCHED"
	if staff {
		header += "\tPROCUREMENT"
	}
	fmt.Fprintln(w, header)

	for _, item := range result.Items {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%t",
			item.Name, item.Quantity, item.MarketRate.StringFixed(2), item.PlatformRate.StringFixed(2), item.Matched)
		if staff {
			line += "\t" + item.ProcurementTargetRate.StringFixed(2)
		}
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nCategory: %s\n", result.Category)
	fmt.Fprintf(out, "Market total: %s  Platform total: %s  Savings: %s (%s%%)\n",
		result.TotalMarket.StringFixed(2), result.TotalPlatform.StringFixed(2),
		result.SavingsValue.StringFixed(2), result.SavingsPercent.StringFixed(1))
	if result.FallbackUsed {
		fmt.Fprintf(out, "Demo data used: %s\n", result.FallbackReason)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
