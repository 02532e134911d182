package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/learning-beast/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog",
		Long:  "Print the catalog (from files or the catalog database) as a single JSON or YAML document.",
		Run:   runExport,
	}

	cmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	c, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		exitErr("open catalog", err)
	}

	doc := catalog.Export(c)
	switch format {
	case "json":
		b, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(b))
	case "yaml":
		b, err := yaml.Marshal(doc)
		if err != nil {
			exitErr("export", err)
		}
		fmt.Print(string(b))
	default:
		exitErr("export", fmt.Errorf("unknown format %q", format))
	}
}
