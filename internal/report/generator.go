package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/accessguard/accessguard-agent/internal/schema"
)

//go:embed report.html.tmpl
var reportHTMLTemplate string

// ---------- Public API ----------

// LoadAuditResult reads the results.json an audit run wrote.
func LoadAuditResult(fromDir string) (schema.AuditResult, error) {
	var res schema.AuditResult
	data, err := os.ReadFile(filepath.Join(fromDir, "results.json"))
	if err != nil {
		return res, fmt.Errorf("read results.json: %w", err)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("parse results.json: %w", err)
	}
	return res, nil
}

// GenerateHTML renders the audit report and returns the written path.
func GenerateHTML(res schema.AuditResult, outDir string) (string, error) {
	vm := buildViewModel(res)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportHTMLTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vm); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	htmlPath := filepath.Join(outDir, "report.html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report.html: %w", err)
	}

	return htmlPath, nil
}

// GenerateYAML writes a machine-readable summary next to the HTML
// report, for pipelines that gate on the compliance score.
func GenerateYAML(res schema.AuditResult, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}

	doc := struct {
		Target         string         `yaml:"target"`
		Level          string         `yaml:"wcag_level"`
		Score          int            `yaml:"compliance_score"`
		Grade          string         `yaml:"grade"`
		TotalIssues    int            `yaml:"total_issues"`
		BySeverity     map[string]int `yaml:"by_severity"`
		ByAgent        map[string]int `yaml:"by_agent"`
		Recommendation string         `yaml:"recommendation"`
	}{
		Target:         res.Target,
		Level:          res.Level,
		Score:          res.Summary.ComplianceScore,
		Grade:          scoreToGrade(res.Summary.ComplianceScore),
		TotalIssues:    res.Summary.TotalIssues,
		BySeverity:     severityCounts(res.Summary),
		ByAgent:        res.Summary.ByAgent,
		Recommendation: res.Summary.Recommendation,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	yamlPath := filepath.Join(outDir, "summary.yaml")
	if err := os.WriteFile(yamlPath, data, 0644); err != nil {
		return "", fmt.Errorf("write summary.yaml: %w", err)
	}
	return yamlPath, nil
}

// ---------- View Model & helpers ----------

type viewModel struct {
	Target         string
	Level          string
	AuditTime      string
	TotalIssues    int
	Counts         map[string]int
	Score          int
	Grade          string
	Recommendation string
	Issues         []issueRow
	Generator      string
	GeneratedAt    string
	LegendSeverity []string
	Year           int
}

type issueRow struct {
	Severity     string
	Type         string
	Agent        string
	Description  string
	Guideline    string
	SuggestedFix string
	Locator      string
}

func buildViewModel(res schema.AuditResult) viewModel {
	now := time.Now().UTC()

	var rows []issueRow
	for _, issue := range res.Issues {
		rows = append(rows, issueRow{
			Severity:     strings.ToUpper(string(issue.Severity)),
			Type:         issue.Type,
			Agent:        issue.Agent,
			Description:  trimTo(issue.Description, 500),
			Guideline:    emptyFallback(issue.WCAGGuideline, "-"),
			SuggestedFix: trimTo(issue.SuggestedFix, 300),
			Locator:      emptyFallback(issue.Locator(), "-"),
		})
	}

	// Sort issues: severity -> type -> locator.
	sort.SliceStable(rows, func(i, j int) bool {
		a := schema.Severity(strings.ToLower(rows[i].Severity))
		b := schema.Severity(strings.ToLower(rows[j].Severity))
		if a.Rank() != b.Rank() {
			return a.Rank() > b.Rank()
		}
		if rows[i].Type != rows[j].Type {
			return rows[i].Type < rows[j].Type
		}
		return rows[i].Locator < rows[j].Locator
	})

	legend := make([]string, 0, len(schema.SeverityOrder))
	for _, sev := range schema.SeverityOrder {
		legend = append(legend, strings.ToUpper(string(sev)))
	}

	return viewModel{
		Target:         res.Target,
		Level:          res.Level,
		AuditTime:      res.Timestamp.UTC().Format(time.RFC3339),
		TotalIssues:    res.Summary.TotalIssues,
		Counts:         severityCounts(res.Summary),
		Score:          res.Summary.ComplianceScore,
		Grade:          scoreToGrade(res.Summary.ComplianceScore),
		Recommendation: res.Summary.Recommendation,
		Issues:         rows,
		Generator:      "accessguard-agent",
		GeneratedAt:    now.Format(time.RFC3339),
		LegendSeverity: legend,
		Year:           now.Year(),
	}
}

// severityCounts expands the lazy summary map to all severities, keyed
// by upper-case name, so templates render a stable legend.
func severityCounts(sum schema.Summary) map[string]int {
	out := make(map[string]int, len(schema.SeverityOrder))
	for _, sev := range schema.SeverityOrder {
		out[strings.ToUpper(string(sev))] = sum.BySeverity[sev]
	}
	return out
}

func scoreToGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func trimTo(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func emptyFallback(s, fb string) string {
	if strings.TrimSpace(s) == "" {
		return fb
	}
	return s
}
