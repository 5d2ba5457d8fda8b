package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-nodes/internal/commands"
	"github.com/dpshade/pocket-nodes/internal/models"
)

// templateRow is the json/yaml form of a template in listings
type templateRow struct {
	ID           string   `json:"id" yaml:"id"`
	NodeID       string   `json:"node_id" yaml:"node"`
	Title        string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholders []string `json:"placeholders" yaml:"placeholders"`
	Default      bool     `json:"default" yaml:"default"`
}

func templateRows(templates []*models.ParsedTemplate) []templateRow {
	rows := make([]templateRow, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, templateRow{
			ID:           t.ID,
			NodeID:       t.NodeID,
			Title:        t.Name,
			Description:  t.Summary,
			Placeholders: t.Placeholders(),
			Default:      t.ID == t.NodeID,
		})
	}
	return rows
}

func printTemplateRows(w io.Writer, rows []templateRow) {
	for _, r := range rows {
		marker := " "
		if r.Default {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-28s %-32s %d fields\n", marker, r.ID, r.Title, len(r.Placeholders))
	}
}

// sentenceText rebuilds a sentence with its placeholders in bracket form
func sentenceText(g models.SentenceGroup) string {
	var b strings.Builder
	for _, seg := range g.Segments {
		if seg.IsInput() {
			b.WriteString(seg.Bracketed())
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func (c *CLI) stagesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List workflow stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.run(cmd.Context(), "stages", map[string]interface{}{"format": format})
			if err != nil {
				return err
			}
			stages := result.Data.([]commands.StageSummary)
			return c.emit(format, stages, func(w io.Writer) {
				for _, s := range stages {
					fmt.Fprintf(w, "%-16s %d nodes\n", s.Title, s.Nodes)
				}
			})
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func (c *CLI) nodesCmd() *cobra.Command {
	var stage, format string

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List project nodes in workflow order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]interface{}{"format": format}
			if stage != "" {
				params["stage"] = stage
			}
			result, err := c.run(cmd.Context(), "nodes", params)
			if err != nil {
				return err
			}
			nodes := result.Data.([]models.Node)
			return c.emit(format, nodes, func(w io.Writer) {
				var current models.Stage
				for _, n := range nodes {
					if n.Stage != current {
						current = n.Stage
						fmt.Fprintf(w, "%s\n", current.Title())
					}
					indent := "  "
					if n.ParentID != "" {
						indent = "    "
					}
					fmt.Fprintf(w, "%s%-24s %s\n", indent, n.ID, n.Title())
				}
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Only list nodes of this stage (planning, implementation, maintenance)")
	addFormatFlag(cmd, &format)
	return cmd
}

func (c *CLI) templatesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "templates <node-id>",
		Short: "List the templates of a node, default first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.run(cmd.Context(), "templates", map[string]interface{}{
				"node_id": args[0],
				"format":  format,
			})
			if err != nil {
				return err
			}
			rows := templateRows(result.Data.([]*models.ParsedTemplate))
			return c.emit(format, rows, func(w io.Writer) {
				printTemplateRows(w, rows)
			})
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func (c *CLI) showCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <template-id>",
		Short: "Show a template sentence by sentence with its placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.run(cmd.Context(), "show", map[string]interface{}{
				"template_id": args[0],
				"format":      format,
			})
			if err != nil {
				return err
			}
			detail := result.Data.(*commands.TemplateDetail)
			return c.emit(format, detail, func(w io.Writer) {
				t := detail.Template
				fmt.Fprintf(w, "%s (%s)\n", t.Title(), t.ID)
				if detail.IsDefault {
					fmt.Fprintf(w, "Default template of %s\n", t.NodeID)
				} else {
					fmt.Fprintf(w, "Node: %s\n", t.NodeID)
				}
				if t.Summary != "" {
					fmt.Fprintln(w, t.Summary)
				}
				fmt.Fprintln(w)
				for _, g := range t.Sentences {
					fmt.Fprintf(w, "%d. %s\n", g.Index+1, sentenceText(g))
				}
				if len(detail.Placeholders) > 0 {
					fmt.Fprintf(w, "\nPlaceholders: %s\n", strings.Join(detail.Placeholders, ", "))
				}
			})
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func (c *CLI) searchCmd() *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search templates by title, id, description and content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.run(cmd.Context(), "search", map[string]interface{}{
				"query": strings.Join(args, " "),
				"limit": limit,
			})
			if err != nil {
				return err
			}
			rows := templateRows(result.Data.([]*models.ParsedTemplate))
			return c.emit(format, rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintln(w, "No templates found.")
					return
				}
				printTemplateRows(w, rows)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results, 0 for all")
	addFormatFlag(cmd, &format)
	return cmd
}

func (c *CLI) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that every node has a default template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.run(cmd.Context(), "health", nil)
			if err != nil {
				return err
			}
			data := result.Data.(map[string]interface{})
			fmt.Fprintf(c.out, "%s: %d nodes, %d templates\n", data["status"], data["nodes"], data["templates"])
			if missing, _ := data["missing_defaults"].([]string); len(missing) > 0 {
				fmt.Fprintf(c.out, "Nodes without a default template: %s\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
