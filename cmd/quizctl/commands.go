package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyashahama/realyou-backend/internal/content"
	"github.com/nyashahama/realyou-backend/internal/pdf"
	"github.com/nyashahama/realyou-backend/internal/report"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

// ─── questions ───────────────────────────────────────────────────────────────

func newQuestionsCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the question bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := content.ParseMode(mode)
			if err != nil {
				return err
			}
			c, err := loadContent()
			if err != nil {
				return err
			}
			for i, q := range c.Questions(m) {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. [%s] %s\n", i+1, q.ID, q.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "classic", "question phrasing: classic or modern")
	return cmd
}

// ─── validate ────────────────────────────────────────────────────────────────

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the embedded content and summarize it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadContent()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			byAxis := c.Bank.CountByAxis()
			fmt.Fprintf(out, "questions: %d\n", c.Bank.Len())
			for _, a := range scoring.Axes {
				fmt.Fprintf(out, "  %s: %d\n", a, byAxis[a])
			}
			fmt.Fprintf(out, "profiles: %d\n", len(c.Profiles))
			fmt.Fprintf(out, "plans: %d\n", len(c.Plans))

			var missing []string
			for _, code := range scoring.AllTypes() {
				if !c.Engine().HasProfile(code) {
					missing = append(missing, code)
				}
			}
			if len(missing) > 0 {
				fmt.Fprintf(out, "types without a profile (fallback used): %s\n", strings.Join(missing, ", "))
			}
			if dups := c.Duplicates(); len(dups) > 0 {
				return fmt.Errorf("duplicate question ids: %s", strings.Join(dups, ", "))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

// ─── score ───────────────────────────────────────────────────────────────────

// readAnswers decodes a JSON answers file. "-" reads stdin. Both the list and
// the object form are accepted, optionally wrapped in {"answers": ...}.
func readAnswers(cmd *cobra.Command, path string) (scoring.Answers, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	var wrapped struct {
		Answers scoring.Answers `json:"answers"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Answers) > 0 {
		return wrapped.Answers, nil
	}
	var answers scoring.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("no answers in %s", path)
	}
	return answers, nil
}

func buildReport(cmd *cobra.Command, path, tierName string) (report.Report, error) {
	t, err := tier.Parse(tierName)
	if err != nil {
		return report.Report{}, err
	}
	answers, err := readAnswers(cmd, path)
	if err != nil {
		return report.Report{}, err
	}
	c, err := loadContent()
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(c.Engine().Score(answers), t, nil), nil
}

func newScoreCmd() *cobra.Command {
	var tierName string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "score <answers.json|->",
		Short: "Score an answers file and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildReport(cmd, args[0], tierName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			fmt.Fprintf(out, "%s - %s (%s)\n\n", r.TypeCode, r.Label, r.PlanLabel)
			for _, a := range r.Axes {
				fmt.Fprintf(out, "%s %+3d  %s %d%% / %s %d%%  %s\n",
					a.Axis, a.Value, a.Axis.PositiveLetter(), a.Split.First, a.Axis.NegativeLetter(), a.Split.Second, a.Intensity)
			}
			fmt.Fprintf(out, "\n%s\n", r.Summary)
			if len(r.Locked) > 0 {
				fmt.Fprintf(out, "\nlocked: %s\n", strings.Join(r.Locked, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tierName, "tier", "premium", "tier to render: free, standard or premium")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// ─── pdf ─────────────────────────────────────────────────────────────────────

func newPDFCmd() *cobra.Command {
	var tierName, output string
	cmd := &cobra.Command{
		Use:   "pdf <answers.json|->",
		Short: "Render the PDF report for an answers file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildReport(cmd, args[0], tierName)
			if err != nil {
				return err
			}
			body, err := pdf.Render(context.Background(), r, time.Now())
			if err != nil {
				return err
			}
			if output == "" {
				output = pdf.Filename(r.TypeCode)
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&tierName, "tier", "premium", "tier to render: free, standard or premium")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default RealYou_Personality_<TYPE>.pdf)")
	return cmd
}

// ─── compat ──────────────────────────────────────────────────────────────────

func newCompatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compat <TYPE> <TYPE>",
		Short: "Compare two type codes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if !scoring.ValidType(scoring.NormalizeType(a)) {
					return fmt.Errorf("%q is not a four-letter type", a)
				}
			}
			m := scoring.Compare(args[0], args[1])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s + %s: %d%% (%s)\n", m.You, m.Them, m.Score, m.Label)
			for _, s := range m.Insights.Strengths {
				fmt.Fprintf(out, "  + %s\n", s)
			}
			for _, c := range m.Insights.Challenges {
				fmt.Fprintf(out, "  - %s\n", c)
			}
			return nil
		},
	}
}
