// Package cli builds the pocket-nodes command tree.
//
// Every subcommand that reads the catalogue goes through commands.CommandExecutor,
// so the CLI, the tests and scripted sessions share one validation path.
// Running the binary without a subcommand hands over to the TUI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	"github.com/dpshade/pocket-nodes/internal/catalog/builtin"
	"github.com/dpshade/pocket-nodes/internal/clipboard"
	"github.com/dpshade/pocket-nodes/internal/commands"
	"github.com/dpshade/pocket-nodes/internal/config"
	"github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/notify"
	"github.com/dpshade/pocket-nodes/internal/server"
	"github.com/dpshade/pocket-nodes/internal/service"
	"github.com/dpshade/pocket-nodes/internal/storage"
)

// Environment is what the interactive TUI needs to start
type Environment struct {
	Config  *config.Config
	Log     *logger.Logger
	Catalog *catalog.Catalog
}

// TUIFunc starts the interactive interface
type TUIFunc func(env *Environment) error

// CLI holds the command tree and the state resolved before each command runs
type CLI struct {
	version string
	out     io.Writer
	errOut  io.Writer
	sink    clipboard.Sink
	tui     TUIFunc

	// global flags
	baseDir    string
	catalogDir string
	debug      bool

	cfg      *config.Config
	log      *logger.Logger
	catalog  *catalog.Catalog
	executor *commands.CommandExecutor
	errors   *errors.CLIErrorHandler
}

type Option func(*CLI)

// WithOutput redirects standard and error output
func WithOutput(out, errOut io.Writer) Option {
	return func(c *CLI) {
		c.out = out
		c.errOut = errOut
	}
}

// WithClipboard replaces the system clipboard
func WithClipboard(sink clipboard.Sink) Option {
	return func(c *CLI) {
		c.sink = sink
	}
}

// WithTUI sets the function run when no subcommand is given
func WithTUI(fn TUIFunc) Option {
	return func(c *CLI) {
		c.tui = fn
	}
}

func New(version string, opts ...Option) *CLI {
	c := &CLI{
		version: version,
		out:     os.Stdout,
		errOut:  os.Stderr,
		sink:    clipboard.System{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the command tree against os.Args
func (c *CLI) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command tree against args and prints any failure
func (c *CLI) ExecuteArgs(args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)

	err := root.Execute()
	if c.log != nil {
		c.log.Sync()
	}
	if err != nil {
		handler := c.errors
		if handler == nil {
			handler = errors.NewCLIErrorHandler(c.debug, c.log)
		}
		fmt.Fprintln(c.errOut, handler.FormatError(err))
	}
	return err
}

// RootCommand builds a fresh command tree
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pocket-nodes",
		Short:         "Fill project-node prompt templates and copy the result",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.tui == nil {
				return cmd.Help()
			}
			return c.tui(&Environment{Config: c.cfg, Log: c.log, Catalog: c.catalog})
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.baseDir, "dir", "", "Data directory (default $POCKET_NODES_DIR or ~/.pocket-nodes)")
	root.PersistentFlags().StringVar(&c.catalogDir, "catalog", "", "Load the catalogue from this directory instead of the built-in one")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")

	root.AddCommand(c.stagesCmd())
	root.AddCommand(c.nodesCmd())
	root.AddCommand(c.templatesCmd())
	root.AddCommand(c.showCmd())
	root.AddCommand(c.renderCmd())
	root.AddCommand(c.copyCmd())
	root.AddCommand(c.searchCmd())
	root.AddCommand(c.healthCmd())
	root.AddCommand(c.mcpCmd())
	root.AddCommand(c.configCmd())
	root.AddCommand(c.versionCmd())

	return root
}

// setup resolves config, logger, catalogue and executor. Flags override the
// environment, which overrides config.toml.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.baseDir)
	if err != nil {
		return err
	}
	if c.catalogDir != "" {
		cfg.CatalogDir = c.catalogDir
	}
	if c.debug {
		cfg.Debug = true
	}
	c.cfg = cfg
	c.debug = cfg.Debug

	mode := logger.ModeNop
	if cfg.Debug {
		mode = logger.ModeDev
		if cmd == cmd.Root() {
			// the TUI owns the terminal
			mode = logger.ModeFile
		}
	}
	log, err := logger.New(mode, cfg.LogPath())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "Failed to create logger")
	}
	c.log = log
	c.errors = errors.NewCLIErrorHandler(cfg.Debug, log)

	// config subcommands must work with a broken catalogue directory
	if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		return nil
	}

	cat, err := c.loadCatalog()
	if err != nil {
		return err
	}
	c.catalog = cat

	svc, err := service.NewService(cat,
		service.WithLogger(log),
		service.WithNotifier(notify.Printer{W: c.errOut}),
		service.WithClipboard(c.sink),
		service.WithPolicy(cfg.RenderPolicy()),
	)
	if err != nil {
		return err
	}
	c.executor = commands.NewCommandExecutor(svc, log)
	return nil
}

func (c *CLI) loadCatalog() (*catalog.Catalog, error) {
	if c.cfg.CatalogDir == "" {
		c.log.Debug("using built-in catalogue")
		return builtin.Load()
	}

	store, err := storage.NewStorage(c.cfg.CatalogDir, c.log)
	if err != nil {
		return nil, err
	}
	c.log.Debug("loading catalogue", "dir", c.cfg.CatalogDir)
	return store.LoadCatalog()
}

// run executes a registered command and turns an unsuccessful result into an error
func (c *CLI) run(ctx context.Context, name string, params map[string]interface{}) (*commands.CommandResult, error) {
	result, err := c.executor.Execute(ctx, name, params)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return result, result.Err()
	}
	return result, nil
}

// emit writes data as JSON or YAML, or calls text for the default format
func (c *CLI) emit(format string, data interface{}, text func(w io.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(c.out)
		return nil
	}
}

// parseVars converts repeated name=value flags to an inputs map
func parseVars(vars []string) (map[string]interface{}, error) {
	inputs := make(map[string]interface{}, len(vars))
	for _, v := range vars {
		name, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, errors.ValidationError(fmt.Sprintf("invalid --var %q, expected name=value", v))
		}
		inputs[name] = value
	}
	return inputs, nil
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", "text", "Output format: text, json or yaml")
}

func (c *CLI) mcpCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalogue and renderer to MCP clients",
		Long: `Serve the catalogue over the Model Context Protocol.

Without --addr (and without mcp_addr in config.toml) the server speaks over
stdin/stdout. With an address it serves streamable HTTP at /mcp and a health
check at /health.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.MCPAddr
			}
			srv := server.NewServer(c.catalog, c.version, c.log)
			if addr == "" {
				return srv.ServeStdio()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(c.errOut, "Serving MCP on http://%s/mcp\n", addr)
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for streamable HTTP, e.g. 127.0.0.1:8765")
	return cmd
}

func (c *CLI) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create config.toml",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfg.Path()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.AlreadyExistsError(path).WithDetails("use --force to overwrite")
			}
			if err := c.cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.toml")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(c.out, "# %s\n", c.cfg.Path())
			fmt.Fprint(c.out, c.cfg.String())
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (c *CLI) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.out, "pocket-nodes version %s\n", c.version)
		},
	}
}
