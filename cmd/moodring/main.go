// Package main provides the CLI entrypoint for moodring.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/moodring/internal/config"
	"github.com/verte-zerg/moodring/internal/demo"
	"github.com/verte-zerg/moodring/internal/display"
	"github.com/verte-zerg/moodring/internal/model"
	"github.com/verte-zerg/moodring/internal/session"
	"github.com/verte-zerg/moodring/internal/stats"
	"github.com/verte-zerg/moodring/internal/terminal"
	"github.com/verte-zerg/moodring/internal/typing"
)

const (
	defaultPalette  = "auto"
	defaultLogLevel = "info"
)

type sessionOptions struct {
	palette      string
	tick         time.Duration
	idleAfter    time.Duration
	mysteryAfter time.Duration
	window       int
	seed         int64
	logFile      string
	logLevel     string
	noColor      bool
}

var opts sessionOptions

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "moodring",
		Short:         "Terminal mood ring driven by your typing rhythm",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runSessionCmd,
	}
	opts.bind(rootCmd)

	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func (o *sessionOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.palette, "palette", defaultPalette, "glyph palette: auto, rich or ascii")
	flags.DurationVar(&o.tick, "tick", session.DefaultTick, "render interval")
	flags.DurationVar(&o.idleAfter, "idle-after", session.DefaultIdleAfter, "pause before the mood starts drifting")
	flags.DurationVar(&o.mysteryAfter, "mystery-after", session.DefaultMysteryAfter, "pause before the mood turns mysterious (0 disables)")
	flags.IntVar(&o.window, "window", typing.DefaultWindow, "number of speed samples averaged")
	flags.Int64Var(&o.seed, "seed", 0, "random seed for patterns and drift (0 picks one)")
	flags.StringVar(&o.logFile, "log-file", "", "write diagnostics to this file")
	flags.StringVar(&o.logLevel, "log-level", defaultLogLevel, "diagnostic log level")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colors")
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig(cmd, &opts)
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg.LogFile, opts.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg.Palette = terminal.ResolvePalette(cfg.Palette, os.Stdout)
	cfg.NoColor = !terminal.ShouldUseColor(os.Stdout, cfg.NoColor)
	screen := display.NewScreen(os.Stdout, display.NewFormatter(display.InteractiveOptions(cfg.Palette, cfg.NoColor)))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := session.New(cfg, terminal.New(os.Stdin), screen, session.WithLogger(logger))
	summary, err := coord.Run(ctx)
	if sessionStarted(err) {
		if cerr := screen.Clear(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to clear screen")
		}
	}
	if err != nil {
		if errors.Is(err, terminal.ErrNotTerminal) {
			logErrln("moodring needs an interactive terminal. Try: moodring demo")
		}
		return err
	}
	return stats.RenderSummary(cmd.OutOrStdout(), summary)
}

// sessionStarted reports whether Run got far enough to draw on the terminal.
func sessionStarted(err error) bool {
	return !errors.Is(err, session.ErrRawMode)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Cycle through every mood automatically",
		Args:  cobra.NoArgs,
		RunE:  runDemoCmd,
	}
}

func runDemoCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig(cmd, &opts)
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg.LogFile, opts.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg.Palette = terminal.ResolvePalette(cfg.Palette, os.Stdout)
	cfg.NoColor = !terminal.ShouldUseColor(os.Stdout, cfg.NoColor)

	m := demo.New(cfg, logger)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run demo: %w", err)
	}
	return stats.RenderSummary(cmd.OutOrStdout(), m.Summary())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func loadSessionConfig(cmd *cobra.Command, o *sessionOptions) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return resolveConfig(cmd, o, fileCfg.Session)
}

// resolveConfig merges file values under explicitly set flags.
func resolveConfig(cmd *cobra.Command, o *sessionOptions, file config.SessionConfig) (model.Config, error) {
	applyStringConfig(cmd, "palette", &o.palette, file.Palette)
	applyDurationConfig(cmd, "tick", &o.tick, file.Tick)
	applyDurationConfig(cmd, "idle-after", &o.idleAfter, file.IdleAfter)
	applyDurationConfig(cmd, "mystery-after", &o.mysteryAfter, file.MysteryAfter)
	applyIntConfig(cmd, "window", &o.window, file.Window)
	applyInt64Config(cmd, "seed", &o.seed, file.Seed)
	applyStringConfig(cmd, "log-file", &o.logFile, file.LogFile)
	applyStringConfig(cmd, "log-level", &o.logLevel, file.LogLevel)
	applyBoolConfig(cmd, "no-color", &o.noColor, file.NoColor)

	palette, ok := model.ParsePalette(o.palette)
	if !ok {
		return model.Config{}, fmt.Errorf("--palette must be one of auto, rich, ascii (got %q)", o.palette)
	}
	cfg := model.Config{
		Palette:      palette,
		Tick:         o.tick,
		IdleAfter:    o.idleAfter,
		MysteryAfter: o.mysteryAfter,
		Window:       o.window,
		Seed:         o.seed,
		LogFile:      o.logFile,
		NoColor:      o.noColor,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# moodring configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# palette = %q            # auto, rich or ascii
# tick = %q               # Render interval
# idle-after = %q           # Pause before the mood starts drifting
# mystery-after = %q      # Pause before the mood turns mysterious ("0s" disables)
# window = %d               # Number of speed samples averaged
# seed = 0                  # Random seed (0 picks one per run)
# log-file = %q
# log-level = %q
# no-color = false
`,
		defaultPalette,
		session.DefaultTick.String(),
		session.DefaultIdleAfter.String(),
		session.DefaultMysteryAfter.String(),
		typing.DefaultWindow,
		config.DefaultLogPath(),
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Tick <= 0 {
		return fmt.Errorf("--tick must be > 0")
	}
	if cfg.IdleAfter <= 0 {
		return fmt.Errorf("--idle-after must be > 0")
	}
	if cfg.MysteryAfter < 0 {
		return fmt.Errorf("--mystery-after must be >= 0")
	}
	if cfg.MysteryAfter > 0 && cfg.MysteryAfter <= cfg.IdleAfter {
		return fmt.Errorf("--mystery-after must be longer than --idle-after")
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	return nil
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
