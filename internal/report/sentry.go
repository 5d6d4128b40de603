package report

import (
	"os"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
)

// Setup initializes the Sentry client from SENTRY_DSN. Without a DSN the
// client is a no-op and reports are dropped.
func Setup(env, version string) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         os.Getenv("SENTRY_DSN"),
		Environment: env,
		Release:     "omroep-generator@" + version,
	})
	if err != nil {
		return err
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("go_version", runtime.Version())
		scope.SetTag("goarch", runtime.GOARCH)
	})
	return nil
}

// Flush waits for buffered events to be sent.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// SentryReportOptions provides optional data for reporting.
type SentryReportOptions struct {
	ExtraContext map[string]interface{}
	Tags         map[string]string
	Level        sentry.Level
}

// ReportError reports err with the default error level.
func ReportError(err error) {
	ReportErrorWithSentryOptions(err, SentryReportOptions{})
}

// ReportErrorWithSentryOptions reports the error with additional options (tags, context, level).
func ReportErrorWithSentryOptions(err error, opts SentryReportOptions) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if opts.ExtraContext != nil {
			scope.SetContext("extra", opts.ExtraContext)
		}
		for k, v := range opts.Tags {
			scope.SetTag(k, v)
		}
		level := opts.Level
		if level == "" {
			level = sentry.LevelError
		}
		scope.SetLevel(level)
		sentry.CaptureException(err)
	})
}

// RouteFailure reports a failed Route Service lookup as a warning.
func RouteFailure(err error, from, to string) {
	ReportErrorWithSentryOptions(err, SentryReportOptions{
		Tags: map[string]string{
			"from": from,
			"to":   to,
		},
		Level: sentry.LevelWarning,
	})
}
