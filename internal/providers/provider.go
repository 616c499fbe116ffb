package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/skybound/internal/models"
)

var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrMissingCredentials  = errors.New("missing credentials")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRateLimited         = errors.New("rate limited")
)

// Provider is a GDS adapter. It returns offers already normalized to
// models.Offer; FinalPrice is left for the pricing engine.
type Provider interface {
	Name() models.Provider
	Search(ctx context.Context, params models.SearchParams) ([]models.Offer, error)
}

type ProviderError struct {
	Provider models.Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return string(e.Provider) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes every ProviderError match ErrProviderUnavailable.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

func NewProviderError(provider models.Provider, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

// RateLimitError is a 429 from a GDS. RetryAfter is zero when the response
// named no delay.
type RateLimitError struct {
	Op         string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Op, e.RetryAfter)
	}
	return e.Op + ": rate limited"
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
