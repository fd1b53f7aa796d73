package pmatch

import (
	"os"

	"github.com/rs/zerolog"
)

// logger is the pmatch package's structured logger, one component logger
// shared by every search. Each call to Match or Locate stamps its own
// trace lines with a fresh profiling-session id (see match.go) rather than
// configuring a new logger per call.
var logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "pmatch").Logger()
