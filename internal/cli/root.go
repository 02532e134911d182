// Package cli implements the learning-beast CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/learning-beast/internal/catalog"
	"github.com/rcliao/learning-beast/internal/config"
)

var (
	configPath string
	dbPath     string
	dataDir    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "learning-beast",
	Short: "Adaptive onboarding and learning paths",
	Long:  "Serves onboarding questionnaires and learning-node graphs over HTTP, and manages the catalog they are built from.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./learning-beast.yaml if present)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Catalog database path (overrides catalog.db)")
	RootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Catalog data directory (overrides catalog.data_dir)")
}

// loadConfig reads configuration and applies flag overrides. --data without
// --db reads files even if the config names a database.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Catalog.DataDir = dataDir
		cfg.Catalog.DB = ""
	}
	if dbPath != "" {
		cfg.Catalog.DB = dbPath
	}
	return cfg, nil
}

// openCatalog loads the catalog from the configured database, or from the
// data directory when no database is set.
func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.DB == "" {
		return catalog.LoadDir(cfg.Catalog.DataDir)
	}
	s, err := catalog.NewSQLiteStore(cfg.Catalog.DB)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load(ctx)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
