// Docshelf — multi-tenant document management service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docshelf",
	Short: "Docshelf — multi-tenant document management service.",
	Long: `Docshelf stores and classifies documents for many tenants on shared
infrastructure. Every data access path is tenant-scoped by construction:
the API resolves the tenant, the storage layer refuses unscoped queries,
and PostgreSQL row-level security backstops both.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tenantCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
