package telegoapi

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryWait is used when a rate limit error carries no retry delay.
var DefaultRetryWait = 2 * time.Second

var retryAfterPattern = regexp.MustCompile(`retry after:? (\d+)`)

// ParseRetryAfter extracts the retry delay from a Telegram rate limit error.
func ParseRetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	match := retryAfterPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return 0, false
	}
	seconds, convErr := strconv.Atoi(match[1])
	if convErr != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// IsRateLimited reports whether err is a Telegram "Too Many Requests" error.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429")
}

// SendWithRetry calls send until it succeeds, fails with an error other than a rate limit,
// or maxRetries attempts were made. Rate limited attempts wait for the delay Telegram asks for.
func SendWithRetry[T any](ctx context.Context, op string, maxRetries int, send func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	logPrefix := fmt.Sprintf("[SendRetry %s]", op)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := send()
		if err == nil {
			if attempt > 1 {
				log.Printf("%s Successfully sent after %d attempt(s)", logPrefix, attempt)
			}
			return result, nil
		}
		lastErr = err

		if !IsRateLimited(err) {
			return zero, fmt.Errorf("%s failed (attempt %d/%d): %w", logPrefix, attempt, maxRetries, err)
		}
		if attempt == maxRetries {
			break
		}

		wait, ok := ParseRetryAfter(err)
		if ok {
			log.Printf("%s Rate limit hit (attempt %d/%d), waiting %v", logPrefix, attempt, maxRetries, wait)
		} else {
			wait = DefaultRetryWait
			log.Printf("%s Rate limit hit (attempt %d/%d), couldn't parse retry time, waiting %v. Error: %v", logPrefix, attempt, maxRetries, wait, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s context cancelled during rate limit wait (attempt %d/%d): %w", logPrefix, attempt, maxRetries, ctx.Err())
		case <-time.After(wait):
		}
	}

	return zero, fmt.Errorf("%s max retries (%d) exceeded: %w", logPrefix, maxRetries, lastErr)
}
