package debug

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DebugHeader marks the start of a traced section if debugging is enabled
func DebugHeader(enabled bool) {
	if enabled {
		log.Debug().Msg("=== DEBUG START ===")
	}
}

// DebugFooter marks the end of a traced section if debugging is enabled
func DebugFooter(enabled bool) {
	if enabled {
		log.Debug().Msg("=== DEBUG END ===")
	}
}

// DebugOutput emits a formatted debug event if debugging is enabled
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		log.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	log.Debug().Str("operation", operation).Msg("starting")

	return func() {
		log.Debug().
			Str("operation", operation).
			Dur("took", time.Since(start)).
			Msg("completed")
	}
}
