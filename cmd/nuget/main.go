package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ThomasSmeets/NuGet.Client/internal/config"
	"github.com/ThomasSmeets/NuGet.Client/internal/exitcode"
)

func main() {
	// Create a cancellable context (for graceful shutdown)
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	level  *slog.LevelVar
	stdout io.Writer
	stderr io.Writer
}

// exitError ends the command with a specific exit code. A nil err means
// the failure was already reported on the console.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Ensure environment variables are loaded
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitcode.ConfigError
	}

	// Configure the global logger
	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})))

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		slog.Warn("failed to load env vars", "error", envErr)
	}

	a := &app{cfg: cfg, level: level, stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(normalizeArgs(args))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err = root.ExecuteContext(ctx)
	if err == nil {
		return exitcode.Success
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "error: %v\n", ee.err)
		}
		return ee.code
	}

	// flag and argument errors from cobra
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitcode.UsageError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "nuget",
		Short:             "Push packages to NuGet feeds",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.AddCommand(a.newPushCmd())
	root.SetGlobalNormalizationFunc(normalizeFlag)
	return root
}

// flagAliases maps short option names to their canonical flag.
var flagAliases = map[string]string{
	"src": "source",
}

// normalizeFlag makes option names case-insensitive and ignores dashes and
// underscores, so -ApiKey, --api-key and --apikey are the same flag.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", "", "_", "").Replace(name)
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

// normalizeArgs rewrites single-dash long options (-Source) to the double
// dash form pflag expects. Single letters, negative numbers and anything
// after "--" are left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' && unicode.IsLetter(rune(arg[1])) {
			arg = "-" + arg
		}
		out = append(out, arg)
	}
	return out
}
