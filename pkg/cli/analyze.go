package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accessguard/accessguard-agent/internal/aggregate"
	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
	"github.com/accessguard/accessguard-agent/pkg/utils"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Run the audit engine over an already-captured snapshot file",
		Example: "aguard analyze --snapshot ./reports/example.com_20250825_101500/snapshot.json --level AAA",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("analyze.snapshot")
			if path == "" {
				return errors.New("please provide --snapshot pointing to a snapshot JSON file")
			}

			cfg := engineConfig("analyze")
			if err := cfg.Validate(); err != nil {
				return err
			}

			snap, err := snapshot.Load(path)
			if err != nil {
				return err
			}

			issues, err := runAnalyzers(snap, cfg)
			if err != nil {
				return err
			}
			issues = aggregate.Dedup(issues)

			res := schema.AuditResult{
				Target:    snap.URL,
				Timestamp: time.Now(),
				Level:     cfg.TargetLevel,
				Issues:    issues,
				Summary:   aggregate.Summarize(issues),
			}

			file, err := utils.SaveResult(res, viper.GetString("output"))
			if err != nil {
				return err
			}

			fmt.Printf("✅ Analysis complete. Results saved to %s\n", file)
			fmt.Printf("   Issues: %d · Score: %d/100 · %s\n",
				res.Summary.TotalIssues, res.Summary.ComplianceScore, res.Summary.Recommendation)
			return nil
		},
	}

	cmd.Flags().String("snapshot", "", "Snapshot JSON file produced by 'aguard audit --save-snapshot'")
	_ = viper.BindPFlag("analyze.snapshot", cmd.Flags().Lookup("snapshot"))
	addEngineFlags(cmd, "analyze")

	return cmd
}
