package metricduck

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// Named detail.error discriminators the API sends with 429 responses.
const (
	ErrDailyCredits  = "Daily credit limit reached"
	ErrMonthlyCredit = "Insufficient credits"
	ErrDailyRequests = "Daily request limit reached"
)

// APIError is a non-200 response from the MetricDuck API.
type APIError struct {
	StatusCode int
	// Detail is the detail.error discriminator from the body, if any.
	Detail string
	// RetryAfter is the Retry-After header value in seconds (429 only).
	RetryAfter int
	// MonthlyLimit / DailyLimit are populated from detail when present.
	MonthlyLimit int64
	DailyLimit   int64
	ResetsAt     string
	Body         string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api returned %d", e.StatusCode)
}

// IsAuth reports whether the error is an invalid-key rejection.
func (e *APIError) IsAuth() bool { return e.StatusCode == http.StatusUnauthorized }

// IsRateLimited reports whether the error is any 429 variant.
func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// Hint returns the user-facing guidance for the error, matching the
// upgrade/register pointers the service documents per limit type.
func (e *APIError) Hint() string {
	switch {
	case e.IsAuth():
		return "Invalid API key. Check your METRICDUCK_API_KEY."
	case e.Detail == ErrDailyCredits:
		resets := e.ResetsAt
		if resets == "" {
			resets = "midnight UTC"
		}
		return fmt.Sprintf("Daily credit limit reached (%s credits/day). Resets at %s.\nUpgrade: https://www.metricduck.com/pricing",
			limitString(e.DailyLimit), resets)
	case e.Detail == ErrMonthlyCredit:
		return fmt.Sprintf("Monthly credit limit reached (%s credits).\nUpgrade at https://www.metricduck.com/pricing",
			limitString(e.MonthlyLimit))
	case e.Detail == ErrDailyRequests:
		limit := e.DailyLimit
		if limit == 0 {
			limit = 5
		}
		return fmt.Sprintf("Daily request limit reached (%d/day for guests).\nRegister free for 500 credits/day: https://www.metricduck.com/auth/register", limit)
	case e.IsRateLimited():
		retry := e.RetryAfter
		if retry == 0 {
			retry = 60
		}
		return fmt.Sprintf("Rate limit reached. Wait %ds and try again.\nRegister free for higher limits: https://www.metricduck.com/auth/register", retry)
	default:
		if e.Detail != "" {
			return e.Detail
		}
		return fmt.Sprintf("API returned %d", e.StatusCode)
	}
}

func limitString(v int64) string {
	if v == 0 {
		return "?"
	}
	return strconv.FormatInt(v, 10)
}

// errorDetail mirrors the detail object of API error bodies.
type errorDetail struct {
	Detail struct {
		Error        string `json:"error"`
		MonthlyLimit int64  `json:"monthly_limit"`
		DailyLimit   int64  `json:"daily_limit"`
		ResetsAt     string `json:"resets_at"`
	} `json:"detail"`
}

// parseAPIError builds an APIError from a non-200 status, headers and body.
// Bodies are sometimes truncated by intermediaries, so the JSON is repaired
// before decoding; an unparseable body just leaves Detail empty.
func parseAPIError(status int, retryAfter string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if len(body) > 500 {
		apiErr.Body = string(body[:500])
	} else {
		apiErr.Body = string(body)
	}
	if secs, err := strconv.Atoi(retryAfter); err == nil {
		apiErr.RetryAfter = secs
	}

	var detail errorDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		repaired, repErr := jsonrepair.JSONRepair(string(body))
		if repErr != nil {
			return apiErr
		}
		if err := json.Unmarshal([]byte(repaired), &detail); err != nil {
			return apiErr
		}
	}

	apiErr.Detail = detail.Detail.Error
	apiErr.MonthlyLimit = detail.Detail.MonthlyLimit
	apiErr.DailyLimit = detail.Detail.DailyLimit
	apiErr.ResetsAt = detail.Detail.ResetsAt
	return apiErr
}
