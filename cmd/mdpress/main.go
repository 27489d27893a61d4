package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/assets"
	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Command names.
const (
	cmdRender  = "render"
	cmdServe   = "serve"
	cmdVersion = "version"
	cmdHelp    = "help"
)

// Sentinel errors for command dispatch.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidFlags   = errors.New("invalid flags")
)

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain runs the CLI and maps the outcome to an exit code.
func runMain(args []string, env *Environment) int {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	if len(args) > 0 {
		args = args[1:]
	}

	err := run(ctx, args, env)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, errorHint(err))
	}
	return exitCodeFor(err)
}

// run dispatches to a command. Without a command name, render is assumed.
func run(ctx context.Context, args []string, env *Environment) error {
	cmd, rest := cmdRender, args
	if len(args) > 0 {
		switch {
		case isCommand(args[0]):
			cmd, rest = args[0], args[1:]
		case !strings.HasPrefix(args[0], "-") && !looksLikeInput(args[0]):
			printUsage(env.Stderr)
			return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
		}
	}

	switch cmd {
	case cmdVersion:
		fmt.Fprintf(env.Stdout, "mdpress %s\n", Version)
		return nil
	case cmdHelp:
		return runHelp(rest, env)
	case cmdServe:
		flags, positional, err := parseServeFlags(rest, env.Stderr)
		if err != nil {
			return flagError(err)
		}
		if len(positional) > 0 {
			return fmt.Errorf("%w: serve takes no arguments, got %q", ErrInvalidFlags, positional)
		}
		log := setupRuntime(flags.common, env)
		defer func() { _ = log.Sync() }()
		return runServe(ctx, flags, env, log)
	default:
		flags, positional, err := parseRenderFlags(rest, env.Stderr)
		if err != nil {
			return flagError(err)
		}
		log := setupRuntime(flags.common, env)
		defer func() { _ = log.Sync() }()
		return runRender(ctx, positional, flags, env, log)
	}
}

// errorHint returns an actionable hint for err, or "".
func errorHint(err error) string {
	switch {
	case errors.Is(err, mdpress.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		dir, _ := os.UserConfigDir()
		return hints.ForConfigNotFound(dir)
	case errors.Is(err, mdpress.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.EmbeddedStyles())
	case errors.Is(err, mdpress.ErrDocumentFetch):
		return hints.ForDocumentFetch()
	case errors.Is(err, ErrWriteHTML):
		return hints.ForOutputDirectory()
	case errors.Is(err, syscall.EADDRINUSE):
		return hints.ForPortInUse()
	}
	return ""
}

// flagError keeps pflag.ErrHelp recognizable and marks everything else as
// a usage error.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidFlags, err)
}

// setupRuntime builds the logger, reports unknown MDPRESS_* variables and
// sizes GOMAXPROCS to the container quota.
func setupRuntime(f commonFlags, env *Environment) *zap.Logger {
	log := newLogger(f.verbose, f.quiet, env.Stderr)
	warnUnknownEnvVars(env.Environ(), log)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if f.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}
	return log
}

// newLogger returns a console logger writing to w. Warnings and errors are
// shown by default, --verbose adds debug output, --quiet keeps errors only.
func newLogger(verbose, quiet bool, w io.Writer) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.WarnLevel
	switch {
	case quiet:
		level = zapcore.ErrorLevel
	case verbose:
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

// notifyContext returns a context that is canceled when an interrupt
// or termination signal is received. SIGTERM is never delivered on Windows.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// isCommand reports whether s names a subcommand.
func isCommand(s string) bool {
	switch s {
	case cmdRender, cmdServe, cmdVersion, cmdHelp:
		return true
	}
	return false
}

// looksLikeInput reports whether s can be a render input: a URL, a
// markdown file name, or an existing directory.
func looksLikeInput(s string) bool {
	if fileutil.IsURL(s) {
		return true
	}
	if isMarkdownExt(filepath.Ext(s)) {
		return true
	}
	return fileutil.DirExists(s)
}
