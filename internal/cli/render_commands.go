package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-nodes/internal/commands"
)

// renderFlags are shared by render and copy
type renderFlags struct {
	vars   []string
	policy string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.vars, "var", "v", nil, "Placeholder value as name=value (repeatable)")
	cmd.Flags().StringVarP(&f.policy, "policy", "p", "", "Render policy: preserve or complete-only (default from config)")
}

func (c *CLI) renderParams(templateID string, f *renderFlags) (map[string]interface{}, error) {
	inputs, err := parseVars(f.vars)
	if err != nil {
		return nil, err
	}
	policy := f.policy
	if policy == "" {
		policy = c.cfg.RenderPolicy().String()
	}
	return map[string]interface{}{
		"template_id": templateID,
		"inputs":      inputs,
		"policy":      policy,
	}, nil
}

func (c *CLI) renderCmd() *cobra.Command {
	var flags renderFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "render <template-id>",
		Short: "Render a template with placeholder values",
		Long: `Render a template with placeholder values given as --var name=value.

With the preserve policy every sentence is printed and unfilled placeholders
stay in [brackets]. With complete-only, sentences that still contain an
unfilled placeholder are left out.`,
		Example: `  pocket-nodes render intro --var "tech stack=Go" --var "brief description=a CLI"
  pocket-nodes render intro --policy complete-only --var "tech stack=Go"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := c.renderParams(args[0], &flags)
			if err != nil {
				return err
			}
			if asJSON {
				params["format"] = "json"
			}

			result, err := c.run(cmd.Context(), "render", params)
			if err != nil {
				return err
			}
			out := result.Data.(*commands.RenderOutput)
			c.log.Debug("rendered", "template_id", out.TemplateID, "filled", out.Filled, "total", out.Total)

			if asJSON {
				fmt.Fprintln(c.out, out.Messages)
				return nil
			}
			fmt.Fprintln(c.out, out.Text)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print an LLM message array instead of plain text")
	return cmd
}

func (c *CLI) copyCmd() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "copy <template-id>",
		Short: "Render a template and copy the result to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := c.renderParams(args[0], &flags)
			if err != nil {
				return err
			}
			// the service notifier already printed the outcome
			_, err = c.run(cmd.Context(), "copy", params)
			return err
		},
	}

	flags.register(cmd)
	return cmd
}
