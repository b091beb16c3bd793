package share

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scoring scale.
const (
	MinScore     = 0.0
	MaxScore     = 5.0
	DefaultScore = 3.0

	// DefaultDescription is shown for metrics the AI has not scored yet.
	DefaultDescription = "AI score not generated"

	// OverallMetric drives the "Overall" marker.
	OverallMetric = "powerGeneration"
)

// CanonicalMetrics lists the swing mechanics in display order.
var CanonicalMetrics = []string{
	"handPath",
	"stride",
	"headPosition",
	"hipRotation",
	"shoulderHipHandTiming",
	"followThrough",
	OverallMetric,
}

// Entry is one displayable scorecard row.
type Entry struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
	// Percent is the marker position on the 0-100 gradient bar.
	Percent float64 `json:"percent"`
}

// Display formats the score as "3.0".
func (e Entry) Display() string { return FormatScore(e.Score) }

// Scorecard is an ordered list of entries.
type Scorecard struct {
	Entries []Entry `json:"entries"`
	// Generated is false when the defaults were substituted for a missing card.
	Generated bool `json:"generated"`
}

// BuildScorecard orders card for display. A nil card yields the default
// seven metrics at DefaultScore. Known metrics keep canonical order and any
// other keys follow alphabetically.
func BuildScorecard(card map[string]Metric) Scorecard {
	if card == nil {
		entries := make([]Entry, 0, len(CanonicalMetrics))
		for _, key := range CanonicalMetrics {
			entries = append(entries, newEntry(key, Metric{Score: DefaultScore, Description: DefaultDescription}))
		}
		return Scorecard{Entries: entries}
	}

	entries := make([]Entry, 0, len(card))
	seen := make(map[string]bool, len(CanonicalMetrics))
	for _, key := range CanonicalMetrics {
		if m, ok := card[key]; ok {
			entries = append(entries, newEntry(key, m))
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(card))
	for key := range card {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		entries = append(entries, newEntry(key, card[key]))
	}
	return Scorecard{Entries: entries, Generated: true}
}

// Lookup returns the entry for key.
func (s Scorecard) Lookup(key string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Overall is the power generation score when present, otherwise the mean of
// all entries, otherwise DefaultScore.
func (s Scorecard) Overall() float64 {
	if e, ok := s.Lookup(OverallMetric); ok {
		return e.Score
	}
	if len(s.Entries) == 0 {
		return DefaultScore
	}
	var sum float64
	for _, e := range s.Entries {
		sum += e.Score
	}
	return sum / float64(len(s.Entries))
}

// OverallPercent is the marker position for Overall.
func (s Scorecard) OverallPercent() float64 { return Percent(s.Overall()) }

// Percent maps a score to a 0-100 marker position.
func Percent(score float64) float64 {
	switch {
	case score < MinScore:
		score = MinScore
	case score > MaxScore:
		score = MaxScore
	}
	return score * (100 / MaxScore)
}

// FormatScore renders a score with one decimal.
func FormatScore(score float64) string { return fmt.Sprintf("%.1f", score) }

// Label turns a metric key into a heading: "shoulderHipHandTiming" becomes
// "Shoulder Hip Hand Timing", "follow_through" becomes "Follow Through".
func Label(key string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	words := strings.Fields(b.String())
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func newEntry(key string, m Metric) Entry {
	desc := strings.TrimSpace(m.Description)
	return Entry{
		Key:         key,
		Label:       Label(key),
		Score:       m.Score,
		Description: desc,
		Percent:     Percent(m.Score),
	}
}
