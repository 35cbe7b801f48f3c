package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dsjohal14/studybank/internal/scope/answers"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
	"github.com/dsjohal14/studybank/internal/scope/search"
	"github.com/dsjohal14/studybank/internal/ui/study"
)

// queryFlags are shared by search and study
type queryFlags struct {
	qtype  string
	module string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.qtype, "type", "t", "", "only questions of this type (single, multi, short, case, practice, other)")
	cmd.Flags().StringVarP(&q.module, "module", "m", "", "only questions of this module")
}

func (q *queryFlags) context(args []string) (pipeline.Context, error) {
	qtype, err := bank.ParseType(q.qtype)
	if err != nil {
		return pipeline.Context{}, err
	}
	return pipeline.Context{
		Query:  strings.Join(args, " "),
		Type:   qtype,
		Module: q.module,
	}, nil
}

// warnUnknownModule prints "did you mean" hints for a module filter that matches nothing
func warnUnknownModule(w io.Writer, modules []string, module string) {
	if module == "" || slices.Contains(modules, module) {
		return
	}
	msg := fmt.Sprintf("no module named %q", module)
	if hints := search.Suggest(modules, module, 3); len(hints) > 0 {
		msg += "; did you mean: " + strings.Join(hints, ", ")
	}
	_, _ = fmt.Fprintln(w, msg)
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var (
		qf     queryFlags
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Fuzzy search questions; an empty query lists every question",
		RunE: func(cmd *cobra.Command, args []string) error {
			qc, err := qf.context(args)
			if err != nil {
				return err
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			warnUnknownModule(cmd.ErrOrStderr(), c.Bank.Modules(), qc.Module)

			res, _ := c.Pipeline.Run(qc)
			hits := res.Hits
			if limit > 0 && len(hits) > limit {
				hits = hits[:limit]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					ID      string  `json:"id"`
					Heading string  `json:"heading"`
					Type    string  `json:"type"`
					Preview string  `json:"preview"`
					Score   float64 `json:"score"`
				}
				rows := make([]row, len(hits))
				for i, h := range hits {
					rows[i] = row{h.Question.ID, h.Question.Heading(), string(h.Question.Type), h.Question.Preview(), h.Score}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			st := flags.styles()
			for _, h := range hits {
				q := h.Question
				_, _ = fmt.Fprintf(out, "%s  %s  %s  %s\n",
					st.heading.Render(q.Heading()),
					st.muted.Render("["+q.Type.Label()+"]"),
					q.Preview(),
					st.muted.Render(fmt.Sprintf("%s %.3f", q.ID, h.Score)))
			}
			_, _ = fmt.Fprintln(out, st.muted.Render(fmt.Sprintf("%d of %d results", len(hits), len(res.Hits))))
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to print (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a question with its reference answer and your answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			q, ok := c.Bank.Get(args[0])
			if !ok {
				return fmt.Errorf("question %q not found", args[0])
			}

			st := flags.styles()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s  %s\n\n%s\n", st.heading.Render(q.Heading()), st.muted.Render(q.Type.Label()), q.Stem)
			if q.Options != "" {
				_, _ = fmt.Fprintf(out, "\n%s\n", q.Options)
			}
			if q.StandardAnswer != "" {
				_, _ = fmt.Fprintf(out, "\n%s\n%s\n", st.label.Render("Reference answer"), q.StandardAnswer)
			}
			for _, src := range q.Source {
				_, _ = fmt.Fprintf(out, "%s\n", st.muted.Render("source: "+src.String()))
			}

			answer, updatedAt := c.Answers.Resolve(q)
			header := "My answer"
			if updatedAt != "" {
				header += " (" + updatedAt + ")"
			}
			if answer == "" {
				answer = "(empty)"
			}
			_, _ = fmt.Fprintf(out, "\n%s\n%s\n", st.label.Render(header), answer)
			return nil
		},
	}
}

func newAnswerCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "answer <id> [text...]",
		Short: "Save your answer to a question (from args, --file, or stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if len(args) == 1 {
				var data []byte
				var err error
				if file != "" && file != "-" {
					data, err = os.ReadFile(file)
				} else {
					data, err = io.ReadAll(cmd.InOrStdin())
				}
				if err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				text = strings.TrimRight(string(data), "\n")
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if !c.Bank.Has(args[0]) {
				return fmt.Errorf("question %q not found", args[0])
			}
			rec, err := c.Answers.Upsert(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved answer for %s at %s\n", args[0], rec.UpdatedAt)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the answer from a file (- for stdin)")
	return cmd
}

func newClearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Clear your answer to a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if !c.Bank.Has(args[0]) {
				return fmt.Errorf("question %q not found", args[0])
			}
			if _, err := c.Answers.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared answer for %s\n", args[0])
			return nil
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every saved answer as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			data, err := c.Answers.ExportJSON()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d answers to %s\n", c.Answers.Count(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout (bare -o writes "+answers.ExportFilename+")")
	cmd.Flags().Lookup("out").NoOptDefVal = answers.ExportFilename
	return cmd
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge answers from an exported file; imported records replace local ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read import: %w", err)
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			n, err := c.Answers.ImportJSON(cmd.Context(), data)
			if err != nil {
				if errors.Is(err, answers.ErrMalformedImport) {
					return fmt.Errorf("%s is not an answers export: %w", args[0], err)
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d answers (%d total)\n", n, c.Answers.Count())
			return nil
		},
	}
}

func newModulesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "modules [name]",
		Short: "List modules with question counts, or look one up by approximate name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			modules := c.Bank.Modules()
			if len(args) == 1 {
				modules = search.Suggest(modules, args[0], 0)
				if len(modules) == 0 {
					return fmt.Errorf("no module matches %q", args[0])
				}
			}

			counts := make(map[string]int)
			for _, q := range c.Bank.All() {
				counts[q.Module]++
			}
			for _, m := range modules {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", m, counts[m])
			}
			return nil
		},
	}
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show question and saved answer counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%d questions · %d saved answers\n", c.Bank.Len(), c.Answers.Count())

			counts := make(map[bank.Type]int)
			for _, q := range c.Bank.All() {
				counts[q.Type]++
			}
			for _, t := range bank.Types {
				if counts[t] > 0 {
					_, _ = fmt.Fprintf(out, "  %-16s %d\n", t.Label(), counts[t])
				}
			}
			return nil
		},
	}
}

func newStudyCmd(flags *globalFlags) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "study [query...]",
		Short: "Open the interactive study view",
		RunE: func(cmd *cobra.Command, args []string) error {
			qc, err := qf.context(args)
			if err != nil {
				return err
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			warnUnknownModule(cmd.ErrOrStderr(), c.Bank.Modules(), qc.Module)

			model := study.NewModel(cmd.Context(), c.Bank, c.Pipeline, c.Answers, study.Options{
				NoColor: flags.noColor,
				Initial: qc,
			})
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	qf.register(cmd)
	return cmd
}
