package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/dingerzone/internal/adapters/http/api"
	"github.com/okian/dingerzone/internal/adapters/upstream"
	"github.com/okian/dingerzone/internal/domain/share"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockService struct {
	details share.Details
	err     error
}

func (m *mockService) SharedVideo(_ context.Context, rawID string) (share.Details, error) {
	if m.err != nil {
		return share.Details{}, m.err
	}
	return m.details, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "cacheEntries": 3}
}

func newMux(svc *mockService) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, mockStats{}).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSharedVideoEndpoint(t *testing.T) {
	Convey("Given the shared video API", t, func() {
		summary := "Keep your head still."
		svc := &mockService{details: share.Details{
			VideoURL:    "https://cdn.example.com/v.mp4",
			PlayerName:  "Casey",
			AISummary:   &summary,
			AIScorecard: map[string]share.Metric{"powerGeneration": {Score: 4, Description: "Strong"}},
		}}
		mux := newMux(svc)

		Convey("When the record exists", func() {
			w := do(mux, "/api/shared-videos/abc")

			Convey("Then the record and scorecard should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var body map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["shareId"], ShouldEqual, "abc")
				So(body["videoUrl"], ShouldEqual, "https://cdn.example.com/v.mp4")
				So(body["playerName"], ShouldEqual, "Casey")
				So(body["aiSummary"], ShouldEqual, summary)
				So(body["skeletonUrl"], ShouldBeNil)
				So(body["overall"], ShouldEqual, 4.0)

				card := body["scorecard"].(map[string]any)
				So(card["generated"], ShouldEqual, true)
				entries := card["entries"].([]any)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].(map[string]any)["label"], ShouldEqual, "Power Generation")
			})
		})

		Convey("When the lookup fails", func() {
			cases := []struct {
				err    error
				status int
				code   string
				msg    string
			}{
				{share.ErrInvalidID, http.StatusBadRequest, "invalid_id", upstream.MsgInvalidLink},
				{fmt.Errorf("x: %w", share.ErrExpired), http.StatusGone, "expired", upstream.MsgExpired},
				{fmt.Errorf("x: %w", upstream.ErrNotConfigured), http.StatusServiceUnavailable, "not_configured", upstream.MsgNotConfigured},
				{&share.UpstreamError{StatusCode: 404, Message: "Share link not found"}, http.StatusNotFound, "upstream", "Share link not found"},
				{errors.New("dial tcp: secret host"), http.StatusBadGateway, "unknown", upstream.MsgFailed},
			}
			for _, tc := range cases {
				svc.err = tc.err
				w := do(mux, "/api/shared-videos/abc")

				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(w.Code, ShouldEqual, tc.status)
				So(body["code"], ShouldEqual, tc.code)
				So(body["message"], ShouldEqual, tc.msg)
			}
		})

		Convey("When the record cannot be encoded", func() {
			svc.details.AIScorecard = map[string]share.Metric{"handPath": {Score: math.NaN()}}
			w := do(mux, "/api/shared-videos/abc")

			Convey("Then a JSON 500 should be returned instead of an empty 200", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)

				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "internal")
			})
		})

		Convey("When an unknown API path is requested", func() {
			w := do(mux, "/api/nope")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the operational routes", t, func() {
		mux := newMux(&mockService{})

		Convey("When checking health", func() {
			w := do(mux, "/healthz")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When a scraper checks health", func() {
			w := do(mux, "/healthz", "Accept", "application/openmetrics-text; version=1.0.0")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "openmetrics")
		})

		Convey("When scraping metrics", func() {
			_ = do(mux, "/healthz")
			w := do(mux, "/metrics")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "dingerzone_site_http_requests_total")
		})

		Convey("When reading stats", func() {
			w := do(mux, "/stats")

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["started"], ShouldEqual, true)
			So(body["cacheEntries"], ShouldEqual, 3.0)
		})

		Convey("When posting to a read-only route", func() {
			req := httptest.NewRequest(http.MethodPost, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given kind errors", t, func() {
		cause := errors.New("boom")
		err := &api.KindError{Op: "api.op", Kind: api.ErrNotFound, Err: cause}

		So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: not found: boom")

		bare := api.NewKind("api.op", api.ErrNotFound)
		So(errors.Is(bare, api.ErrNotFound), ShouldBeTrue)
		So(bare.Error(), ShouldEqual, "api.op: not found")
	})
}
