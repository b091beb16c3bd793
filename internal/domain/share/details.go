// Package share models a shared swing video as returned by the remote API.
package share

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Details is one shared video record.
type Details struct {
	VideoURL       string            `json:"videoUrl"`
	SkeletonURL    *string           `json:"skeletonUrl"`
	ThumbnailURL   *string           `json:"thumbnailUrl"`
	PlayerName     string            `json:"playerName"`
	UploadDate     string            `json:"uploadDate"`
	Description    string            `json:"description"`
	AISummary      *string           `json:"aiSummary"`
	AIScorecard    map[string]Metric `json:"aiScorecard"`
	ExpirationTime string            `json:"expirationTime"`
}

// Metric is a single AI score on a 0-5 scale.
type Metric struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// UnmarshalJSON accepts the score either as a number or as a numeric string.
// NaN and infinities are rejected.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score       json.RawMessage `json:"score"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Description = raw.Description
	m.Score = 0

	s := bytes.TrimSpace(raw.Score)
	if len(s) == 0 || string(s) == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(s, &str); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("score %q: %w", str, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("score %q: not a finite number", str)
		}
		m.Score = f
		return nil
	}
	return json.Unmarshal(s, &m.Score)
}

// Skeleton returns the skeleton overlay URL or "".
func (d Details) Skeleton() string { return deref(d.SkeletonURL) }

// Thumbnail returns the poster URL or "".
func (d Details) Thumbnail() string { return deref(d.ThumbnailURL) }

// Summary returns the AI summary or "".
func (d Details) Summary() string { return deref(d.AISummary) }

// HasSkeleton reports whether a computer-vision rendition exists.
func (d Details) HasSkeleton() bool { return d.Skeleton() != "" }

// Source picks the video to play. The skeleton is used only when asked for
// and present.
func (d Details) Source(skeleton bool) string {
	if skeleton && d.HasSkeleton() {
		return d.Skeleton()
	}
	return d.VideoURL
}

// Uploaded parses UploadDate.
func (d Details) Uploaded() (time.Time, bool) { return parseTime(d.UploadDate) }

// Expires parses ExpirationTime.
func (d Details) Expires() (time.Time, bool) { return parseTime(d.ExpirationTime) }

// Expired reports whether the link has a parseable expiration at or before now.
// Records without an expiration never expire here.
func (d Details) Expired(now time.Time) bool {
	exp, ok := d.Expires()
	if !ok {
		return false
	}
	return !exp.After(now)
}

// Scorecard builds the display scorecard for this record.
func (d Details) Scorecard() Scorecard { return BuildScorecard(d.AIScorecard) }

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Decode unwraps an API response into Details. The API answers either with
// the record itself or with a gateway envelope whose "body" holds the record
// as a JSON string (or, less often, as an object).
func Decode(body []byte) (Details, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Details{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if top == nil {
		return Details{}, fmt.Errorf("%w: not a JSON object", ErrInvalidResponse)
	}

	payload := body
	if raw, ok := top["body"]; ok {
		raw = bytes.TrimSpace(raw)
		switch {
		case len(raw) > 0 && raw[0] == '"':
			var inner string
			if err := json.Unmarshal(raw, &inner); err != nil {
				return Details{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
			}
			payload = []byte(inner)
		case len(raw) > 0 && raw[0] == '{':
			payload = raw
		}
	}

	if status := envelopeStatus(top["statusCode"]); status >= 400 {
		return Details{}, &UpstreamError{StatusCode: status, Message: errorMessage(payload)}
	}

	var d Details
	if err := json.Unmarshal(payload, &d); err != nil {
		return Details{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(d.VideoURL) == "" {
		if msg := errorMessage(payload); msg != "" {
			return Details{}, &UpstreamError{Message: msg}
		}
		return Details{}, fmt.Errorf("%w: missing videoUrl", ErrInvalidResponse)
	}
	d.VideoURL = strings.TrimSpace(d.VideoURL)
	return d, nil
}

// ErrorMessage extracts {"error": "..."} or {"message": "..."} from a JSON
// body, unwrapping a string "body" envelope first. It returns "" when none
// is present.
func ErrorMessage(body []byte) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return ""
	}
	if raw, ok := top["body"]; ok {
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			if msg := errorMessage([]byte(inner)); msg != "" {
				return msg
			}
		}
	}
	return errorMessage(body)
}

func errorMessage(payload []byte) string {
	var e struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(payload, &e); err != nil {
		return ""
	}
	var s string
	if len(e.Error) > 0 && json.Unmarshal(e.Error, &s) == nil && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(e.Message)
}

func envelopeStatus(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}
