package cli

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rcliao/learning-beast/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import catalog files into the catalog database",
		Long: "Read questions and nodes files (JSON or YAML) and replace the contents of the catalog database.\n" +
			"Files default to questions.* and nodes.* in the data directory.",
		Run: runImport,
	}

	cmd.Flags().String("questions", "", "Questions file")
	cmd.Flags().String("nodes", "", "Nodes file")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	questionsPath, _ := cmd.Flags().GetString("questions")
	nodesPath, _ := cmd.Flags().GetString("nodes")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if cfg.Catalog.DB == "" {
		exitErr("import", errors.New("no catalog database: set --db or catalog.db"))
	}

	var source string
	var c *catalog.Catalog
	if questionsPath != "" || nodesPath != "" {
		if questionsPath == "" || nodesPath == "" {
			exitErr("import", errors.New("--questions and --nodes must be given together"))
		}
		source = questionsPath + "," + nodesPath
		c, err = catalog.LoadFiles(questionsPath, nodesPath)
	} else {
		source = cfg.Catalog.DataDir
		c, err = catalog.LoadDir(cfg.Catalog.DataDir)
	}
	if err != nil {
		exitErr("load catalog files", err)
	}

	s, err := catalog.NewSQLiteStore(cfg.Catalog.DB)
	if err != nil {
		exitErr("open catalog database", err)
	}
	defer s.Close()

	res, err := s.Import(cmd.Context(), source, c.Questions(), c.Nodes())
	if err != nil {
		exitErr("import", err)
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
