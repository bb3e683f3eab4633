package firmware

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a research job:
// queued → running → succeeded | failed.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// CreateResponse is returned by POST /research.
type CreateResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Job is a research job as returned by GET /research/{id} and the list
// endpoint. Report is set only when succeeded, Error only when failed.
type Job struct {
	ID        string `json:"id"`
	Status    Status `json:"status"`
	Title     string `json:"title"`
	Topic     string `json:"topic"`
	Report    string `json:"report,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ListResponse is returned by GET /research.
type ListResponse struct {
	Docs      []Job `json:"docs"`
	TotalDocs int   `json:"totalDocs"`
}

// Quota is returned by GET /quota. Reset is nil when there is no active
// window.
type Quota struct {
	Used  float64
	Reset *string
}

func (q *Quota) UnmarshalJSON(data []byte) error {
	var raw struct {
		Used  json.RawMessage `json:"used"`
		Reset *string         `json:"reset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Used = coerceNumber(raw.Used)
	q.Reset = raw.Reset
	return nil
}

// coerceNumber converts a JSON value the way a loosely typed client would:
// numbers pass through, numeric strings are parsed, null and false are 0,
// true is 1, and anything else is NaN.
func coerceNumber(raw json.RawMessage) float64 {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "false":
		return 0
	case "true":
		return 1
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return math.NaN()
	}
	switch val := v.(type) {
	case float64:
		return val
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return 0
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
