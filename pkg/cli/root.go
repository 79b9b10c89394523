package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/cliconfig"
	"github.com/getmockd/apireg/pkg/logging"
	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/view"
	"github.com/getmockd/apireg/pkg/viewer"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags available to all subcommands.
type globalFlags struct {
	apiURL     string
	viewerURL  string
	configFile string
	jsonOutput bool
	output     string
	timeout    int
	logLevel   string
	logFormat  string
	logFile    string
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags globalFlags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	prompter Prompter
	opener   viewer.Opener

	// in buffers stdin for line prompts and the browse loop.
	in *bufio.Reader
}

// Option configures the root command.
type Option func(*app)

// WithIO sets the standard streams used by commands.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *app) {
		a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	}
}

// WithPrompter sets how interactive input is collected.
func WithPrompter(p Prompter) Option {
	return func(a *app) {
		a.prompter = p
	}
}

// WithOpener sets how viewer links are opened.
func WithOpener(o viewer.Opener) Option {
	return func(a *app) {
		a.opener = o
	}
}

// NewRootCmd builds the apireg command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		opener: viewer.BrowserOpener{},
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "apireg",
		Short: "apireg manages a registry of API specifications",
		Long: `apireg lists, searches, registers, edits and deletes API specification
records held by a registry service, shows the endpoints the registry found in
each document, and opens documents in an external schema viewer.

Configuration can be provided via flags, environment variables (APIREG_*), a
local .apiregrc.yaml, or a global $XDG_CONFIG_HOME/apireg/config.yaml.`,
		// No Run function here means 'apireg' with no args will print help text by default.
		SilenceUsage:  true,
		SilenceErrors: true, // errors are printed by Main
	}
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.apiURL, "api-url", "", "Registry API base URL (env "+cliconfig.EnvAPIURL+")")
	pf.StringVar(&a.flags.viewerURL, "viewer-url", "", "Schema viewer base URL (env "+cliconfig.EnvViewerURL+")")
	pf.StringVar(&a.flags.configFile, "config", "", "Config file to use instead of .apiregrc.yaml (env "+cliconfig.EnvConfig+")")
	pf.BoolVar(&a.flags.jsonOutput, "json", false, "Output command results in JSON format")
	pf.StringVar(&a.flags.output, "output", "", "Output format: table, json or yaml")
	pf.IntVar(&a.flags.timeout, "timeout", 0, "Per-request timeout in seconds (default 30)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Diagnostic log format: text or json")
	pf.StringVar(&a.flags.logFile, "log-file", "", "Also write JSON diagnostics to this file")

	rootCmd.AddCommand(
		newListCmd(a),
		newEndpointsCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newViewCmd(a),
		newFetchCmd(a),
		newBrowseCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// Main runs apireg with os.Args and returns the process exit code.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	// After the first interrupt, a second one kills the process as usual.
	context.AfterFunc(ctx, stop)
	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

// Execute runs apireg and exits with its exit code.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, FormatError(err))
		var ce *cliconfig.ConfigError
		if errors.As(err, &ce) {
			return 2
		}
		return 1
	}
	return 0
}

// loadConfig resolves the effective configuration: files and environment
// from cliconfig.LoadAll, then the flags set on cmd.
func (a *app) loadConfig(cmd *cobra.Command) (*cliconfig.CLIConfig, error) {
	cfg, err := cliconfig.LoadAll(a.flags.configFile)
	if err != nil {
		return nil, err
	}

	flagCfg := &cliconfig.CLIConfig{SetFields: make(map[string]bool)}
	set := func(flag, key string, apply func()) {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			apply()
			flagCfg.SetFields[key] = true
		}
	}
	set("api-url", "apiUrl", func() { flagCfg.APIURL = a.flags.apiURL })
	set("viewer-url", "viewerUrl", func() { flagCfg.ViewerURL = a.flags.viewerURL })
	set("timeout", "timeout", func() { flagCfg.Timeout = a.flags.timeout })
	set("log-level", "logLevel", func() { flagCfg.LogLevel = a.flags.logLevel })
	set("log-format", "logFormat", func() { flagCfg.LogFormat = a.flags.logFormat })
	set("log-file", "logFile", func() { flagCfg.LogFile = a.flags.logFile })
	set("output", "output", func() { flagCfg.Output = a.flags.output })
	if a.flags.jsonOutput {
		flagCfg.Output = cliconfig.OutputJSON
		flagCfg.SetFields["output"] = true
	}
	set("prefetch", "prefetchEndpoints", func() {
		flagCfg.PrefetchEndpoints, _ = cmd.Flags().GetBool("prefetch")
	})

	cliconfig.MergeConfig(cfg, flagCfg, cliconfig.SourceFlag)
	return cfg, nil
}

// env is what a registry command needs: validated config, a logger, the
// registry client and a view session over it.
type env struct {
	cfg     *cliconfig.CLIConfig
	log     *slog.Logger
	client  *registry.Client
	session *view.Session

	closeLog io.Closer
}

func (e *env) Close() {
	e.session.Close()
	_ = e.closeLog.Close()
}

// connect loads and validates the configuration and builds a session. The
// caller must Close the result.
func (a *app) connect(cmd *cobra.Command) (*env, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, closeLog, err := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: a.stderr,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}

	client := registry.New(cfg.APIURL,
		registry.WithTimeout(cfg.RequestTimeout()),
		registry.WithLogger(log),
		registry.WithUserAgent("apireg/"+Version),
	)

	policy := view.EndpointsLazy
	if cfg.PrefetchEndpoints {
		policy = view.EndpointsEager
	}
	session := view.NewSession(client, cfg.ViewerURL,
		view.WithLogger(log),
		view.WithOpener(a.opener),
		view.WithEndpointPolicy(policy),
	)

	log.Debug("session ready", "apiUrl", cfg.APIURL, "viewerUrl", cfg.ViewerURL, "endpoints", session.Policy().String())
	return &env{cfg: cfg, log: log, client: client, session: session, closeLog: closeLog}, nil
}

// prompt returns the configured Prompter, or one suited to stdin.
func (a *app) prompt() Prompter {
	if a.prompter == nil {
		a.prompter = defaultPrompter(a.input(), a.stdin, a.stderr)
	}
	return a.prompter
}

// input returns the shared buffered reader over stdin.
func (a *app) input() *bufio.Reader {
	if a.in == nil {
		a.in = bufio.NewReader(a.stdin)
	}
	return a.in
}
