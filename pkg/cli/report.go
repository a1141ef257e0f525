package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reportpkg "github.com/accessguard/accessguard-agent/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Generate HTML/YAML report from an audit result directory",
		Example: "aguard report --from ./reports/example.com_20250825_101500 --format html,yaml",
		RunE:    runReport,
	}

	cmd.Flags().String("from", "", "Audit result directory (must contain results.json)")
	cmd.Flags().String("format", "html,yaml", "Output formats: html,yaml,json (json just points to results.json)")

	_ = viper.BindPFlag("report.from", cmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("report.format", cmd.Flags().Lookup("format"))
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	from := viper.GetString("report.from")
	if from == "" {
		return errors.New("please provide --from pointing to the audit directory (with results.json)")
	}

	formats := strings.Split(viper.GetString("report.format"), ",")
	for i := range formats {
		formats[i] = strings.TrimSpace(strings.ToLower(formats[i]))
	}

	res, err := reportpkg.LoadAuditResult(from)
	if err != nil {
		return err
	}

	if contains(formats, "html") {
		htmlPath, err := reportpkg.GenerateHTML(res, from)
		if err != nil {
			return err
		}
		fmt.Printf("📝 HTML report: %s\n", htmlPath)
	}

	if contains(formats, "yaml") {
		yamlPath, err := reportpkg.GenerateYAML(res, from)
		if err != nil {
			return err
		}
		fmt.Printf("📊 YAML summary: %s\n", yamlPath)
	}

	if contains(formats, "json") {
		fmt.Printf("📦 JSON already exists at: %s\n", filepath.Join(from, "results.json"))
	}

	return nil
}

func contains(arr []string, v string) bool {
	for _, x := range arr {
		if x == v {
			return true
		}
	}
	return false
}
