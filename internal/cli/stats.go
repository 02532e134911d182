package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rcliao/learning-beast/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Long:  "Show question and node counts per category, dangling successor ids and nodes no other node leads to.",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	var stats *catalog.Stats
	if cfg.Catalog.DB != "" {
		s, err := catalog.NewSQLiteStore(cfg.Catalog.DB)
		if err != nil {
			exitErr("open catalog database", err)
		}
		defer s.Close()
		stats, err = s.Stats(cmd.Context(), cfg.Catalog.DB)
		if err != nil {
			exitErr("stats", err)
		}
	} else {
		c, err := catalog.LoadDir(cfg.Catalog.DataDir)
		if err != nil {
			exitErr("open catalog", err)
		}
		stats = catalog.Summarize(c)
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}
