package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/i18n"
	"github.com/tartampluch/go-amlich/internal/lunar"
	"github.com/tartampluch/go-amlich/internal/tuvi"
)

// main delegates to runMain so deferred calls run before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain wires signals, runs the command tree and maps the outcome to an
// exit code.
func runMain() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{clock: engine.RealClock{}}
	defer a.close()

	if err := a.rootCommand().ExecuteContext(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

// app carries the dependencies shared by every subcommand. They are built in
// the root PersistentPreRunE once flags are parsed.
type app struct {
	configPath string
	lang       string
	debug      bool

	clock        engine.Clock
	settings     *config.Settings
	settingsPath string
	text         *i18n.Translator
	conv         *lunar.Vietnamese
	engine       *engine.Engine
	charts       *tuvi.Builder
	logCloser    io.Closer
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          config.CmdRoot,
		Short:        config.ShortRoot,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&a.configPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.StringVar(&a.lang, config.FlagLang, "", config.FlagDescLang)

	root.AddCommand(
		a.dayCommand(),
		a.analyzeCommand(),
		a.findCommand(),
		a.activitiesCommand(),
		a.chartCommand(),
		a.compatCommand(),
		a.contactsCommand(),
		a.serveCommand(),
		a.initCommand(),
		versionCommand(),
	)
	return root
}

// setup loads the settings and builds the shared services.
func (a *app) setup() error {
	if a.logCloser == nil {
		a.logCloser = setupLogging(a.debug)
		logStartupInfo()
	}

	path := a.configPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}

	lang := settings.Language
	if a.lang != "" {
		lang = a.lang
	}
	tag, err := config.MatchLanguage(lang)
	if err != nil {
		return err
	}

	slog.Debug(config.MsgSettingsLoaded,
		config.LogKeyComponent, config.CompSettings,
		config.LogKeyPath, path,
		config.LogKeyLang, tag.String(),
	)

	a.settings = settings
	a.settingsPath = path
	a.text = i18n.MustTranslator(tag.String())
	a.conv = &lunar.Vietnamese{TimeZone: settings.TimeZone}
	a.engine = engine.New(a.conv,
		engine.WithWorkers(settings.Engine.Workers),
		engine.WithMaxSpanDays(settings.Engine.MaxSpanDays),
		engine.WithLocalizer(a.text),
	)
	a.charts = tuvi.NewBuilder(a.conv)
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.ShortVersion,
		Args:  cobra.NoArgs,
		// The version needs neither settings nor logging.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

// printVersion writes the build information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, config.MsgVersionOutput,
		config.AppName,
		config.Version,
		config.Commit,
		config.Date,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging installs a JSON slog handler writing to stderr and to a log
// file in the user cache directory. Stdout is left to command output.
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stderr}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets the log on every run.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath returns the log location, creating the app cache dir.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return filepath.Join(appDir, config.LogFileName), nil
}
