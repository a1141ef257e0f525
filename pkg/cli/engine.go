package cli

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accessguard/accessguard-agent/internal/analyzers"
	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// addEngineFlags exposes the engine options on a command, bound to viper
// under the given prefix so AGUARD_* env overrides work.
func addEngineFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("level", analyzers.LevelAA, "WCAG target level: A, AA, or AAA")
	cmd.Flags().Int("mismatch-tolerance", 1, "Focus-order inversions tolerated per ten focusable elements")
	cmd.Flags().Int("trap-budget", 2, "Keyboard-trap step budget as a multiple of the focus sequence length")
	_ = viper.BindPFlag(prefix+".level", cmd.Flags().Lookup("level"))
	_ = viper.BindPFlag(prefix+".mismatch-tolerance", cmd.Flags().Lookup("mismatch-tolerance"))
	_ = viper.BindPFlag(prefix+".trap-budget", cmd.Flags().Lookup("trap-budget"))
}

func engineConfig(prefix string) analyzers.Config {
	return analyzers.Config{
		TargetLevel:              viper.GetString(prefix + ".level"),
		MismatchTolerancePerTen:  viper.GetInt(prefix + ".mismatch-tolerance"),
		TrapStepBudgetMultiplier: viper.GetInt(prefix + ".trap-budget"),
	}
}

// runAnalyzers executes every analyzer over one snapshot. The analyzers
// are pure and read-only, so they run in parallel and merge only at the
// aggregation boundary.
func runAnalyzers(snap *snapshot.PageSnapshot, cfg analyzers.Config) ([]schema.Issue, error) {
	contrast, err := analyzers.NewContrastAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	focus, err := analyzers.NewFocusAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	all := []analyzers.Analyzer{contrast, focus}

	results := make([][]schema.Issue, len(all))
	errs := make([]error, len(all))

	var wg sync.WaitGroup
	for i, an := range all {
		wg.Add(1)
		go func(i int, an analyzers.Analyzer) {
			defer wg.Done()
			results[i], errs[i] = an.Analyze(snap)
		}(i, an)
	}
	wg.Wait()

	var issues []schema.Issue
	for i := range all {
		if errs[i] != nil {
			return nil, errs[i]
		}
		issues = append(issues, results[i]...)
	}
	return issues, nil
}
