package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accessguard/accessguard-agent/internal/aggregate"
	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
	"github.com/accessguard/accessguard-agent/pkg/utils"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Capture a page and run the full accessibility audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("audit.target")
			if target == "" {
				return errors.New("please provide --target")
			}

			cfg := engineConfig("audit")
			if err := cfg.Validate(); err != nil {
				return err
			}

			fmt.Printf("🔍 Capturing %s\n", target)
			snap, err := snapshot.Capture(cmd.Context(), target, snapshot.CaptureOptions{
				Timeout: viper.GetDuration("audit.timeout"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("   Snapshot: %d elements\n", len(snap.Elements))

			issues, err := runAnalyzers(snap, cfg)
			if err != nil {
				return err
			}
			issues = aggregate.Dedup(issues)

			res := schema.AuditResult{
				Target:    target,
				Timestamp: time.Now(),
				Level:     cfg.TargetLevel,
				Issues:    issues,
				Summary:   aggregate.Summarize(issues),
			}

			outDir := viper.GetString("output")
			file, err := utils.SaveResult(res, outDir)
			if err != nil {
				return err
			}

			if viper.GetBool("audit.save-snapshot") {
				snapPath := filepath.Join(filepath.Dir(file), "snapshot.json")
				if err := snap.Save(snapPath); err != nil {
					return err
				}
				fmt.Printf("   Snapshot saved to %s\n", snapPath)
			}

			fmt.Printf("✅ Audit complete. Results saved to %s\n", file)
			fmt.Printf("   Issues: %d · Score: %d/100 · %s\n",
				res.Summary.TotalIssues, res.Summary.ComplianceScore, res.Summary.Recommendation)
			return nil
		},
	}

	cmd.Flags().String("target", "", "Target page URL")
	cmd.Flags().Duration("timeout", 60*time.Second, "Capture timeout")
	cmd.Flags().Bool("save-snapshot", false, "Also save the captured snapshot for offline re-analysis")
	_ = viper.BindPFlag("audit.target", cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("audit.timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("audit.save-snapshot", cmd.Flags().Lookup("save-snapshot"))
	addEngineFlags(cmd, "audit")

	return cmd
}
