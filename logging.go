package sshc

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// defaultLogger builds the standard go-kit logging setup used throughout
// sshc (level.Debug(log).Log(...) calls): a logfmt logger to
// stderr, filtered to info level and above unless the caller supplies
// their own more-verbose Logger via Options.
func defaultLogger() log.Logger {
	base := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	base = log.With(base, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(base, level.AllowInfo())
}
