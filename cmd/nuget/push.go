package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ThomasSmeets/NuGet.Client/internal/config"
	"github.com/ThomasSmeets/NuGet.Client/internal/exitcode"
	"github.com/ThomasSmeets/NuGet.Client/internal/feed"
	"github.com/ThomasSmeets/NuGet.Client/internal/model"
	"github.com/ThomasSmeets/NuGet.Client/internal/policy"
	"github.com/ThomasSmeets/NuGet.Client/internal/push"
	"github.com/ThomasSmeets/NuGet.Client/internal/report"
	"github.com/ThomasSmeets/NuGet.Client/internal/settings"
	"github.com/ThomasSmeets/NuGet.Client/internal/storage"
)

type pushFlags struct {
	source            string
	apiKey            string
	symbolSource      string
	symbolAPIKey      string
	timeout           int
	disableBuffering  bool
	noSymbols         bool
	noServiceEndpoint bool
	continueOnError   []string
	configFile        string
	verbosity         string
	parallel          int
}

func (a *app) newPushCmd() *cobra.Command {
	var f pushFlags
	cmd := &cobra.Command{
		Use:   "push <package-path> [api-key]",
		Short: "Push a package to a feed, and its symbols to a symbol feed",
		Long: `Push a package to a feed and publish it.

The package path may be a glob such as out/*.nupkg. When a symbol feed is
configured, the companion .snupkg (or legacy .symbols.nupkg) is pushed after
the package.`,
		Example: `  nuget push PackageA.1.1.0.nupkg -Source https://feed.example/v2 -ApiKey $KEY
  nuget push out/*.nupkg -Source nightly -ContinueOnError duplicate`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPush(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.source, "source", "", "Feed URL, folder or source name to push to")
	flags.StringVar(&f.apiKey, "apikey", "", "API key for the feed")
	flags.StringVar(&f.symbolSource, "symbolsource", "", "Symbol feed URL or source name")
	flags.StringVar(&f.symbolAPIKey, "symbolapikey", "", "API key for the symbol feed")
	flags.IntVar(&f.timeout, "timeout", 0, "Seconds to wait for each upload (default from PUSH_TIMEOUT, 300)")
	flags.BoolVar(&f.disableBuffering, "disablebuffering", false, "Stream the package instead of buffering it in memory")
	flags.BoolVar(&f.noSymbols, "nosymbols", false, "Do not push symbol packages")
	flags.BoolVar(&f.noServiceEndpoint, "noserviceendpoint", false, "Do not append api/v2/package to the source URL")
	flags.StringArrayVar(&f.continueOnError, "continueonerror", nil,
		"Failures to tolerate: duplicate, invalid. Repeat the option or separate values with ';'")
	flags.StringVar(&f.configFile, "configfile", "", "Settings file (default from PUSH_SETTINGS_FILE)")
	flags.StringVar(&f.verbosity, "verbosity", "normal", "Console output: quiet, normal or detailed")
	flags.IntVar(&f.parallel, "parallel", 1, "Maximum number of packages pushed at once")

	return cmd
}

func (a *app) runPush(cmd *cobra.Command, args []string, f pushFlags) error {
	// Validate options before touching the network
	tolerated, err := policy.Parse(policy.SplitTokens(f.continueOnError))
	if err != nil {
		return &exitError{code: exitcode.UsageError, err: err}
	}
	verbosity, err := report.ParseVerbosity(f.verbosity)
	if err != nil {
		return &exitError{code: exitcode.UsageError, err: err}
	}
	if f.timeout < 0 {
		return &exitError{code: exitcode.UsageError, err: fmt.Errorf("timeout must not be negative, got %d", f.timeout)}
	}
	if f.parallel < 1 {
		return &exitError{code: exitcode.UsageError, err: fmt.Errorf("parallel must be at least 1, got %d", f.parallel)}
	}
	if verbosity == report.Detailed {
		a.level.Set(slog.LevelDebug)
	}

	timeout := a.cfg.Timeout
	if f.timeout > 0 {
		timeout = config.Seconds(int64(f.timeout))
	}

	settingsFile := a.cfg.SettingsFile
	if f.configFile != "" {
		settingsFile = f.configFile
	}
	set, err := settings.Load(settingsFile)
	if err != nil {
		return &exitError{code: exitcode.ConfigError, err: err}
	}
	set = set.WithDefaults(a.cfg.DefaultSource, a.cfg.SymbolSource)

	session, err := model.NewSessionID()
	if err != nil {
		return &exitError{code: exitcode.PushFailed, err: err}
	}

	client, err := feed.NewClient()
	if err != nil {
		return &exitError{code: exitcode.ConfigError, err: err}
	}
	uploader := feed.NewMux(client)
	uploader.Handle(storage.Scheme, storage.NewFeed(storage.MinIOConfig{
		Endpoint:  a.cfg.S3Endpoint,
		AccessKey: a.cfg.S3AccessKey,
		SecretKey: a.cfg.S3SecretKey,
		UseSSL:    a.cfg.S3UseSSL,
	}))

	console := report.NewConsole(a.stdout, a.stderr, verbosity)
	svc := push.NewService(uploader, set, console, session)

	req := push.Request{
		PackagePath:       args[0],
		APIKey:            f.apiKey,
		Source:            f.source,
		SymbolSource:      f.symbolSource,
		SymbolAPIKey:      f.symbolAPIKey,
		Timeout:           timeout,
		DisableBuffering:  f.disableBuffering,
		NoSymbols:         f.noSymbols,
		NoServiceEndpoint: f.noServiceEndpoint,
		Tolerated:         tolerated,
	}
	if len(args) > 1 {
		req.PositionalAPIKey = args[1]
	}

	slog.DebugContext(cmd.Context(), "push started",
		"package", req.PackagePath,
		"tolerated", tolerated.String(),
		"timeout", timeout,
		"parallel", f.parallel,
		"session_id", session,
	)

	result, err := svc.PushAll(cmd.Context(), req, f.parallel)
	if errors.Is(err, push.ErrNoSource) {
		return &exitError{code: exitcode.UsageError, err: err}
	}
	if err != nil && result.Succeeded() {
		// failed before any phase was recorded
		return &exitError{code: exitcode.PushFailed, err: err}
	}
	for _, e := range multierr.Errors(err) {
		console.Error(e.Error())
	}

	slog.InfoContext(cmd.Context(), "push complete", "results", len(result.Results()), "exit_code", result.ExitCode(), "session_id", session)
	if code := result.ExitCode(); code != exitcode.Success {
		return &exitError{code: code}
	}
	return nil
}
