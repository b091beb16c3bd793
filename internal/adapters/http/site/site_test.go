package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/dingerzone/internal/adapters/upstream"
	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)

type stubService struct {
	details share.Details
	err     error
	lastID  string
}

func (s *stubService) SharedVideo(_ context.Context, rawID string) (share.Details, error) {
	s.lastID = rawID
	if s.err != nil {
		return share.Details{}, s.err
	}
	return s.details, nil
}

func strPtr(s string) *string { return &s }

func testConfig() Config {
	return Config{
		SiteURL:       "https://www.dingerzone.com",
		AppStoreURL:   "https://apps.apple.com/app/dingerzone",
		AppDeepLink:   "dingerzone://subscription-success",
		SupportEmail:  "support@dingerzone.com",
		FeedbackEmail: "feedback@dingerzone.ai",
	}
}

func sampleDetails() share.Details {
	return share.Details{
		VideoURL:     "https://cdn.example.com/original.mp4",
		SkeletonURL:  strPtr("https://cdn.example.com/skeleton.mp4"),
		ThumbnailURL: strPtr("https://cdn.example.com/poster.jpg"),
		PlayerName:   "Casey",
		UploadDate:   "2025-07-03T18:30:00Z",
		Description:  "Nice load, early hands.",
		AISummary:    strPtr("Keep your head still."),
		AIScorecard: map[string]share.Metric{
			"stride":          {Score: 4, Description: "Balanced stride"},
			"powerGeneration": {Score: 4.5, Description: "Strong legs"},
		},
		ExpirationTime: "2025-07-10T18:30:00Z",
	}
}

func newTestServer(svc SharedVideoService) (*http.ServeMux, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv, err := NewServer(svc, testConfig(),
		WithLogger(logger.New(zap.New(core))),
		WithClock(func() time.Time { return fixedNow }),
	)
	So(err, ShouldBeNil)

	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux, logs
}

func get(mux http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStaticPages(t *testing.T) {
	Convey("Given the site routes", t, func() {
		mux, logs := newTestServer(&stubService{})

		Convey("When requesting the landing page", func() {
			w := get(mux, "/")

			Convey("Then it should render the marketing sections", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				body := w.Body.String()
				So(body, ShouldContainSubstring, "<title>DingerZone - Backyard to Big Leagues</title>")
				So(body, ShouldContainSubstring, "Why You'll Love Our App")
				So(body, ShouldContainSubstring, `id="faq-section"`)
				So(body, ShouldContainSubstring, `href="https://apps.apple.com/app/dingerzone"`)
				So(body, ShouldContainSubstring, "mailto:feedback@dingerzone.ai")
			})
		})

		Convey("When requesting the privacy policy", func() {
			w := get(mux, "/privacy")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "DingerZone Privacy Policy")
			So(w.Body.String(), ShouldContainSubstring, `href="mailto:support@dingerzone.com"`)
			So(w.Body.String(), ShouldContainSubstring, "<h2 id=")
		})

		Convey("When requesting the terms", func() {
			w := get(mux, "/terms")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Terms of Service")
			So(w.Body.String(), ShouldContainSubstring, "feedback@dingerzone.ai")
			So(w.Body.String(), ShouldNotContainSubstring, "{{")
		})

		Convey("When requesting the support page", func() {
			w := get(mux, "/support")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `href="mailto:support@dingerzone.com"`)
		})

		Convey("When returning from checkout", func() {
			w := get(mux, "/subscription-success?session_id=cs_test_123")

			Convey("Then the deep link should survive escaping and the session be logged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Subscription Successful!")
				So(w.Body.String(), ShouldContainSubstring, `href="dingerzone://subscription-success"`)

				entries := logs.FilterMessage("subscription completed").All()
				So(entries, ShouldHaveLength, 1)
				So(entries[0].ContextMap()["session_id"], ShouldEqual, "cs_test_123")
			})
		})

		Convey("When requesting an unknown page", func() {
			w := get(mux, "/does-not-exist")

			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "Page Not Found")
		})

		Convey("When requesting a static asset", func() {
			w := get(mux, "/static/css/site.css")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")

			js := get(mux, "/static/js/shared.js")
			So(js.Code, ShouldEqual, http.StatusOK)
			body, _ := io.ReadAll(js.Body)
			So(string(body), ShouldContainSubstring, "view-toggle")
		})
	})
}

func TestSharedVideoPage(t *testing.T) {
	Convey("Given a shared video", t, func() {
		svc := &stubService{details: sampleDetails()}
		mux, _ := newTestServer(svc)

		Convey("When opening the share link", func() {
			w := get(mux, "/shared/abc123")
			body := w.Body.String()

			Convey("Then the viewer should show the record", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(svc.lastID, ShouldEqual, "abc123")
				So(body, ShouldContainSubstring, "Casey")
				So(body, ShouldContainSubstring, "Date Uploaded: 7/3/2025")
				So(body, ShouldContainSubstring, `src="https://cdn.example.com/original.mp4"`)
				So(body, ShouldContainSubstring, `poster="https://cdn.example.com/poster.jpg"`)
				So(body, ShouldContainSubstring, "Summary Feedback")
				So(body, ShouldContainSubstring, "AI Swing Breakdown")
				So(body, ShouldContainSubstring, "Playing video 1 of 1")
				So(body, ShouldNotContainSubstring, " disabled")
			})

			Convey("Then the scorecard should use the power generation score as overall", func() {
				So(body, ShouldContainSubstring, "4.5/5.0")
				So(body, ShouldContainSubstring, "left: 90%")
				So(body, ShouldContainSubstring, "Power Generation")
			})

			Convey("Then the expiry notice should be relative", func() {
				So(body, ShouldContainSubstring, "Link expires 5 days from now")
			})
		})

		Convey("When the skeleton view is requested", func() {
			w := get(mux, "/shared/abc123?view=skeleton")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `src="https://cdn.example.com/skeleton.mp4"`)
			So(w.Body.String(), ShouldContainSubstring, " checked")
		})

		Convey("When the record has no skeleton", func() {
			d := sampleDetails()
			d.SkeletonURL = nil
			d.PlayerName = ""
			d.UploadDate = "garbage"
			d.AISummary = nil
			d.AIScorecard = nil
			svc.details = d

			w := get(mux, "/shared/abc123?view=skeleton")
			body := w.Body.String()

			Convey("Then the original should play and the toggle be disabled", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, `src="https://cdn.example.com/original.mp4"`)
				So(body, ShouldContainSubstring, " disabled")
				So(body, ShouldContainSubstring, "Unknown Player")
				So(body, ShouldContainSubstring, "Unknown date")
				So(body, ShouldNotContainSubstring, "Summary Feedback")
				So(body, ShouldContainSubstring, "3.0/5.0")
				So(body, ShouldContainSubstring, share.DefaultDescription)
			})
		})

		Convey("When the player name contains markup", func() {
			d := sampleDetails()
			d.PlayerName = "<script>alert(1)</script>"
			svc.details = d

			w := get(mux, "/shared/abc123")
			So(w.Body.String(), ShouldNotContainSubstring, "<script>alert(1)</script>")
			So(w.Body.String(), ShouldContainSubstring, "&lt;script&gt;")
		})
	})
}

func TestSharedVideoErrors(t *testing.T) {
	Convey("Given failing lookups", t, func() {
		cases := []struct {
			err     error
			status  int
			message string
		}{
			{share.ErrMissingID, http.StatusBadRequest, upstream.MsgInvalidLink},
			{fmt.Errorf("share x: %w", share.ErrExpired), http.StatusGone, upstream.MsgExpired},
			{fmt.Errorf("lookup: %w", upstream.ErrNotConfigured), http.StatusServiceUnavailable, "Configuration error: API URL not set."},
			{fmt.Errorf("lookup: %w", upstream.ErrUnreachable), http.StatusBadGateway, "Unable to reach the server."},
			{&share.UpstreamError{StatusCode: 404, Message: "Share link not found"}, http.StatusNotFound, "Share link not found"},
			{errors.New("boom"), http.StatusBadGateway, upstream.MsgFailed},
		}

		for _, tc := range cases {
			svc := &stubService{err: tc.err}
			mux, _ := newTestServer(svc)
			w := get(mux, "/shared/abc")

			So(w.Code, ShouldEqual, tc.status)
			So(w.Body.String(), ShouldContainSubstring, tc.message)
			So(w.Body.String(), ShouldContainSubstring, `href="https://www.dingerzone.com"`)
			So(w.Body.String(), ShouldContainSubstring, "Back to DingerZone")
		}

		Convey("When the id is missing from the path", func() {
			mux, _ := newTestServer(&stubService{})
			for _, target := range []string{"/shared", "/shared/"} {
				w := get(mux, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, upstream.MsgInvalidLink)
			}
		})
	})
}

func TestInternalErrorPage(t *testing.T) {
	Convey("Given the internal error handler", t, func() {
		core, _ := observer.New(zapcore.DebugLevel)
		srv, err := NewServer(&stubService{}, testConfig(), WithLogger(logger.New(zap.New(core))))
		So(err, ShouldBeNil)

		w := httptest.NewRecorder()
		srv.HandleInternalError(w, httptest.NewRequest(http.MethodGet, "/", nil))

		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		So(strings.Contains(w.Body.String(), upstream.MsgFailed), ShouldBeTrue)
	})
}

func TestSharedPath(t *testing.T) {
	Convey("Given share ids", t, func() {
		So(sharedPath("abc", false), ShouldEqual, "/shared/abc")
		So(sharedPath("abc", true), ShouldEqual, "/shared/abc?view=skeleton")
		So(sharedPath("a b", false), ShouldEqual, "/shared/a%20b")
	})
}
