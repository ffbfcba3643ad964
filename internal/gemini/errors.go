package gemini

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExhausted marks provider rejections caused by exhausted quota.
	ErrQuotaExhausted = errors.New("provider quota exhausted")
	// ErrUnavailable marks transient provider outages.
	ErrUnavailable = errors.New("provider temporarily unavailable")
)

// classifyErr folds a provider error into the classes callers act on. Quota
// exhaustion surfaces as a 429 status, RESOURCE_EXHAUSTED or a quota notice
// in the body; transient outages surface as 503, UNAVAILABLE or overloaded.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %s", ErrQuotaExhausted, err)
	case strings.Contains(msg, "503"), strings.Contains(msg, "unavailable"), strings.Contains(msg, "overloaded"):
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	default:
		return err
	}
}
