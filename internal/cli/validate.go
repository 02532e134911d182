package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/learning-beast/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the catalog loads",
		Long:  "Load and validate the catalog. Exits non-zero on duplicate ids, missing fields, negative rewards or out-of-range weights.",
		Run:   runValidate,
	}

	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	c, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		exitErr("invalid catalog", err)
	}

	st := catalog.Summarize(c)
	for _, e := range st.Dangling {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: node %s lists unknown successor %s\n", e.From, e.To)
	}
	fmt.Printf(`{"ok":true,"questions":%d,"nodes":%d}`+"\n", st.Questions, st.Nodes)
}
