package fetch

import (
	"golang.org/x/time/rate"

	"github.com/wasmedge/wasmedgeup/pkg/logger"
)

// logProgress returns the default progress reporter: byte counts logged at
// debug level, throttled so a large download does not flood the log.
func (f *Fetcher) logProgress() ProgressFunc {
	limiter := rate.NewLimiter(rate.Limit(2), 1)

	return func(written, total int64) {
		done := total > 0 && written >= total
		if !done && !limiter.Allow() {
			return
		}
		fields := logger.Fields{"bytes": written}
		if total > 0 {
			fields["total"] = total
		}
		f.log.WithFields(fields).Debug("Download progress")
	}
}
