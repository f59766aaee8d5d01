package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"svgdx/common"
	"svgdx/config"
	"svgdx/convert"
	"svgdx/misc"
	"svgdx/state"
)

const transformHelp = `%s
SOURCE:
    diagram source(s) to compile, one of:
        "[path]file.svg"              single source file (.svg or .xml with <svg> root)
        "[path]directory"             every source under directory, in natural name order
        "[path]archive.zip"           every source in the archive
        "[path]archive.zip/[path]"    sources under a path inside the archive

    Sources starting with a UTF-8, UTF-16 or UTF-32 byte order mark are decoded
    accordingly, otherwise the XML declaration names the encoding.
    Archives inside archives are not opened.

DESTINATION:
    directory for compiled SVG files, current working directory if absent.
    File names come from sources or from output.name_template.

THEMES:
    %s

AUTO STYLE MODES:
    %s
`

const dumpconfigHelp = `%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Without --default writes the effective configuration: embedded defaults
merged with the file given by --config.
`

// initializeAppContext loads configuration, opens the debug report and
// builds the logger. Runs after the command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	var err error
	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(configFile), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))
	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

// prepareTransform applies transform command flags over the loaded
// configuration and reads the user stylesheet, so the action sees final
// pipeline options.
func prepareTransform(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := state.EnvFromContext(ctx)
	if env.Cfg == nil {
		return ctx, nil
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	if cmd.Bool("png") {
		env.Cfg.Output.PNG.Enable = true
	}
	if cmd.IsSet("seed") {
		env.Cfg.Transform.Seed = cmd.Int64("seed")
	}
	if cmd.Bool("annotate") {
		env.Cfg.Transform.Debug = true
	}
	if err := env.LoadStylesheet(); err != nil {
		return ctx, err
	}

	env.Log.Debug("Transform options",
		zap.Bool("png", env.Cfg.Output.PNG.Enable),
		zap.Int64("seed", env.Cfg.Transform.Seed),
		zap.Bool("annotate", env.Cfg.Transform.Debug),
		zap.Stringer("theme", env.Cfg.Transform.Theme),
		zap.Bool("stylesheet", len(env.UserStylesheet) > 0))
	return ctx, nil
}

// destroyAppContext syncs logs, closes the debug report and removes an
// empty panic log.
func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()

	// log is synced and may go into the report, errors go to stderr from now on
	if er := env.Rpt.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
	}
	if env.Cfg == nil || len(env.Cfg.Logging.FileLogger.Destination) == 0 {
		return
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})
	fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
	if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
		if er := os.Remove(fname); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
		}
	}
	return
}

// set when the error was logged, main prints it to stderr otherwise
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	if env := state.EnvFromContext(ctx); env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if env := state.EnvFromContext(ctx); env.Log != nil {
		env.Log.Warn("Unknown command, nothing to do", zap.String("command", name))
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "compiles extended SVG diagram markup into plain SVG",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and pack sources, intermediate trees and outputs into report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "transform",
				Aliases:      []string{"t"},
				Usage:        "Compiles diagram source(s) to SVG",
				OnUsageError: usageErrorHandler,
				Before:       prepareTransform,
				Action:       convert.Run,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "png", Usage: "also render a PNG preview next to each output"},
					&cli.Int64Flag{Name: "seed", Usage: "seed `VALUE` for random functions, overrides configuration"},
					&cli.BoolFlag{Name: "annotate", Usage: "precede each output element with a comment naming its source element"},
					&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "do not mirror source directory structure in destination"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "replace existing output files"},
					&cli.StringFlag{Name: "force-zip-cp",
						Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(transformHelp, cli.CommandHelpTemplate,
					strings.Join(common.ThemeNames(), ", "), strings.Join(common.AutoStyleModeNames(), ", ")),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError:       usageErrorHandler,
				Action:             outputConfiguration,
				ArgsUsage:          "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(dumpconfigHelp, cli.CommandHelpTemplate),
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// NOTE: os.Exit skips deferred calls, keep this the only defer in main
	defer func() {
		stop()
		if err != nil {
			// log may be not ready yet or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data  []byte
		err   error
		which = "actual"
	)
	if cmd.Bool("default") {
		which = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		env.Log.Info("Writing configuration", zap.String("state", which), zap.String("file", "STDOUT"))
		_, err = os.Stdout.Write(data)
	} else {
		env.Log.Info("Writing configuration", zap.String("state", which), zap.String("file", fname))
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
