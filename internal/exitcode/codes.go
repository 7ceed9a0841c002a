package exitcode

// Exit codes for the push CLI.
// CI pipelines can use these to tell a rejected push from a broken invocation.
const (
	// Success - every package and symbol push succeeded or was tolerated
	Success = 0

	// PushFailed - at least one push failed fatally (duplicate, invalid,
	// timeout, network or unexpected failure)
	PushFailed = 1

	// UsageError - bad arguments or an unknown continue-on-error option
	// Don't retry: fix the command line first
	UsageError = 2

	// ConfigError - malformed environment or settings file
	ConfigError = 3
)
