package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicevault/internal/app"
	"invoicevault/internal/domain"
	"invoicevault/internal/service"
	"invoicevault/internal/validator"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a single document and print it as JSON",
	}
	cmd.PersistentFlags().String("category", "", "document category (food|instamart); detected from the path when omitted")
	cmd.AddCommand(newParseSummaryCmd(), newParseDetailCmd())
	return cmd
}

func newParseSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file>",
		Short: "Parse an order summary document",
		Example: `  invoicevault parse summary input/food/order_summary_food_2025.pdf
  invoicevault parse summary export.txt --category instamart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			cat, data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			engine := app.NewEngine(&cfg.Engine)
			summary, err := engine.Extractor.ParseSummary(data, cat)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Summary *domain.Summary        `json:"summary"`
				Checks  validator.SummaryCheck `json:"checks"`
			}{summary, engine.Validator.CheckSummary(summary)})
		},
	}
}

func newParseDetailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detail <file>",
		Short:   "Parse an order detail document and check its arithmetic",
		Example: `  invoicevault parse detail invoice.pdf --category instamart --order-id 218453339012345`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			orderID, _ := cmd.Flags().GetInt64("order-id")
			cat, data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			engine := app.NewEngine(&cfg.Engine)
			rec, fee, err := engine.Extractor.ParseDetail(data, cat, orderID)
			if err != nil {
				return err
			}

			out := struct {
				Record           *domain.OrderRecord         `json:"record"`
				Fee              *domain.FeeRecord           `json:"fee,omitempty"`
				ValidationErrors []validator.ValidationError `json:"validation_errors,omitempty"`
			}{Record: rec, Fee: fee}
			checkErr := engine.Validator.Check(rec, fee, nil)
			if verrs, ok := checkErr.(validator.ValidationErrors); ok {
				out.ValidationErrors = verrs
			}
			if err := printJSON(cmd, out); err != nil {
				return err
			}
			return checkErr
		},
	}
	cmd.Flags().Int64("order-id", 0, "expected order id; 0 skips the check")
	return cmd
}

func readDocument(cmd *cobra.Command, path string) (domain.Category, []byte, error) {
	cat, err := categoryFlag(cmd, path)
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return cat, data, nil
}

// categoryFlag combines the --category flag with the category implied by
// path.
func categoryFlag(cmd *cobra.Command, path string) (domain.Category, error) {
	raw, _ := cmd.Flags().GetString("category")
	var explicit domain.Category
	if raw != "" {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			return "", err
		}
		explicit = c
	}
	return service.ResolveCategory(path, explicit)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
