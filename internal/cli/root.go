// Package cli implements the invoicevault command line.
package cli

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"invoicevault/internal/config"
	"invoicevault/internal/logger"
)

// Version is the application version. Set at build time using ldflags.
var Version = "dev"

// BuildDate is the date the application was built. Set at build time using ldflags.
var BuildDate = "unknown"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "invoicevault",
		Short: "Parse, validate and load food and instamart tax invoices",
		Long: `invoicevault reads order summary documents, fetches the detail invoice of
every listed order, checks the invoice arithmetic and loads the orders into
the database.

Configuration is read from INVOICEVAULT_* environment variables and an
optional .env file in the working directory.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIngestCmd(), newParseCmd(), newVersionCmd())
	return root
}

// Execute runs the command line and returns its error.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads .env and configuration and installs the logger. The returned
// closer releases the log output.
func setup() (*config.Config, io.Closer, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	closer, err := logger.Setup(cfg.Log.LoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, closer, nil
}
