// Package httpclient builds the retrying, rate-limited HTTP clients used for
// calls to the AI and maps services.
package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options configures a client
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestsPerSecond of zero disables rate limiting
	RequestsPerSecond float64
	Burst             int
}

// New returns a standard *http.Client that retries transient failures and,
// when configured, paces requests through an AdaptiveRateLimiter.
func New(opts Options, logger zerolog.Logger) *http.Client {
	client := retryablehttp.NewClient()
	client.Logger = ZerologLeveled{Logger: logger}
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt == 0 {
			return
		}
		logger.Warn().Int("attempt", attempt).Str("method", req.Method).Str("host", req.URL.Host).Msg("Retrying request")
	}
	client.HTTPClient.Timeout = opts.Timeout

	stdClient := client.StandardClient()
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limit := rate.Limit(opts.RequestsPerSecond)
		addRateLimiter(stdClient, NewAdaptiveRateLimiter(limit, burst, limit/4))
	}
	return stdClient
}

// ZerologLeveled adapts a zerolog.Logger to retryablehttp.LeveledLogger
type ZerologLeveled struct {
	Logger zerolog.Logger
}

func (l ZerologLeveled) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error().Fields(withoutQuery(keysAndValues)).Msg(msg)
}

func (l ZerologLeveled) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug().Fields(withoutQuery(keysAndValues)).Msg(msg)
}

func (l ZerologLeveled) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug().Fields(withoutQuery(keysAndValues)).Msg(msg)
}

func (l ZerologLeveled) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn().Fields(withoutQuery(keysAndValues)).Msg(msg)
}

// withoutQuery drops the query string from any "url" field. API keys travel
// in the query.
func withoutQuery(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, len(keysAndValues))
	copy(out, keysAndValues)
	for i := 0; i+1 < len(out); i += 2 {
		if k, ok := out[i].(string); !ok || k != "url" {
			continue
		}
		switch v := out[i+1].(type) {
		case string:
			if u, err := url.Parse(v); err == nil {
				u.RawQuery = ""
				out[i+1] = u.String()
			}
		case *url.URL:
			if v != nil {
				u := *v
				u.RawQuery = ""
				out[i+1] = u.String()
			}
		}
	}
	return out
}
