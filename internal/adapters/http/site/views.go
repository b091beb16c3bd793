package site

import (
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/dingerzone/internal/adapters/upstream"
	"github.com/okian/dingerzone/internal/domain/share"
)

// Display fallbacks.
const (
	unknownPlayer = "Unknown Player"
	unknownDate   = "Unknown date"
	uploadLayout  = "1/2/2006"
	expiryLayout  = "Jan 2, 2006 3:04 PM MST"

	viewParam    = "view"
	viewSkeleton = "skeleton"
	viewOriginal = "original"
)

// sharedView backs templates/shared.html.
type sharedView struct {
	ID          string
	PlayerName  string
	Uploaded    string
	Description string
	Summary     string

	VideoURL    string
	SkeletonURL string
	Thumbnail   string
	Source      string
	Skeleton    bool
	HasSkeleton bool
	ToggleHref  string

	OverallPercent float64
	OverallDisplay string
	Entries        []share.Entry

	ExpiresIn     string
	ExpiresAt     string
	PlaybackError string
}

func newSharedView(id string, d share.Details, wantSkeleton bool, now time.Time) sharedView {
	v := sharedView{
		ID:            id,
		PlayerName:    strings.TrimSpace(d.PlayerName),
		Uploaded:      unknownDate,
		Description:   strings.TrimSpace(d.Description),
		Summary:       d.Summary(),
		VideoURL:      d.VideoURL,
		SkeletonURL:   d.Skeleton(),
		Thumbnail:     d.Thumbnail(),
		HasSkeleton:   d.HasSkeleton(),
		PlaybackError: upstream.MsgPlaybackFailed,
	}
	if v.PlayerName == "" {
		v.PlayerName = unknownPlayer
	}
	if t, ok := d.Uploaded(); ok {
		v.Uploaded = t.Format(uploadLayout)
	}

	v.Skeleton = wantSkeleton && v.HasSkeleton
	v.Source = d.Source(v.Skeleton)
	v.ToggleHref = sharedPath(id, !v.Skeleton)

	card := d.Scorecard()
	v.Entries = card.Entries
	v.OverallPercent = card.OverallPercent()
	v.OverallDisplay = share.FormatScore(card.Overall())

	if exp, ok := d.Expires(); ok {
		v.ExpiresIn = humanize.RelTime(exp, now, "ago", "from now")
		v.ExpiresAt = exp.Format(expiryLayout)
	}
	return v
}

// sharedPath builds /shared/{id}, optionally selecting the skeleton view.
func sharedPath(id string, skeleton bool) string {
	p := "/shared/" + url.PathEscape(id)
	if skeleton {
		p += "?" + viewParam + "=" + viewSkeleton
	}
	return p
}

// errorView backs templates/error.html.
type errorView struct {
	Heading   string
	Message   string
	BackURL   string
	BackLabel string
}

// successView backs templates/subscription_success.html. The deep link uses
// a custom scheme that html/template would otherwise reject.
type successView struct {
	DeepLink template.URL
}
