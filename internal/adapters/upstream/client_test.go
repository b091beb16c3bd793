package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const record = `{"videoUrl":"https://cdn.example.com/v.mp4","playerName":"Casey","uploadDate":"2025-07-03T18:30:00Z"}`

type captured struct {
	method      string
	path        string
	contentType string
	requestID   string
	shareID     string
	cookies     int
}

func newAPI(t *testing.T, status int, body string, seen *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen.method = r.Method
			seen.path = r.URL.Path
			seen.contentType = r.Header.Get("Content-Type")
			seen.requestID = r.Header.Get("X-Request-ID")
			seen.cookies = len(r.Cookies())
			var req struct {
				ShareID string `json:"shareId"`
			}
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &req)
			seen.shareID = req.ShareID
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSharedVideoDetails(t *testing.T) {
	Convey("Given a share API client", t, func() {
		ctx := context.Background()

		Convey("When the API returns an envelope", func() {
			var seen captured
			envelope := fmt.Sprintf(`{"statusCode":200,"body":%q}`, record)
			srv := newAPI(t, http.StatusOK, envelope, &seen)
			c := New(srv.URL + "/prod/")

			d, err := c.SharedVideoDetails(logger.WithRequestID(ctx, "rid-1"), share.ID("abc"))

			Convey("Then the record should be decoded", func() {
				So(err, ShouldBeNil)
				So(d.PlayerName, ShouldEqual, "Casey")
				So(d.VideoURL, ShouldEqual, "https://cdn.example.com/v.mp4")
			})

			Convey("Then the request should follow the API contract", func() {
				So(seen.method, ShouldEqual, http.MethodPost)
				So(seen.path, ShouldEqual, "/prod"+SharedVideoPath)
				So(seen.contentType, ShouldEqual, "application/json")
				So(seen.shareID, ShouldEqual, "abc")
				So(seen.requestID, ShouldEqual, "rid-1")
				So(seen.cookies, ShouldEqual, 0)
			})
		})

		Convey("When the base URL is empty", func() {
			c := New("  ")
			So(c.Configured(), ShouldBeFalse)

			_, err := c.SharedVideoDetails(ctx, share.ID("abc"))
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
			So(UserMessage(err), ShouldEqual, MsgNotConfigured)
		})

		Convey("When the base URL is not absolute", func() {
			for _, raw := range []string{"api.example.com/prod", "/prod", "ftp://api.example.com", "https://"} {
				c := New(raw)
				So(c.Configured(), ShouldBeFalse)

				_, err := c.SharedVideoDetails(ctx, share.ID("abc"))
				So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
				So(Classify(err), ShouldEqual, KindNotConfigured)
				So(UserMessage(err), ShouldEqual, MsgNotConfigured)
			}
		})

		Convey("When the id is empty", func() {
			c := New("http://127.0.0.1:1")
			_, err := c.SharedVideoDetails(ctx, "")
			So(errors.Is(err, share.ErrMissingID), ShouldBeTrue)
		})

		Convey("When the API answers with an error message", func() {
			srv := newAPI(t, http.StatusNotFound, `{"error":"Share link not found"}`, nil)
			_, err := New(srv.URL).SharedVideoDetails(ctx, share.ID("gone"))

			Convey("Then the message should reach the visitor", func() {
				var upErr *share.UpstreamError
				So(errors.As(err, &upErr), ShouldBeTrue)
				So(upErr.StatusCode, ShouldEqual, http.StatusNotFound)
				So(UserMessage(err), ShouldEqual, "Share link not found")
				So(HTTPStatus(err), ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the API fails without a message", func() {
			srv := newAPI(t, http.StatusInternalServerError, `oops`, nil)
			_, err := New(srv.URL).SharedVideoDetails(ctx, share.ID("abc"))

			So(errors.Is(err, ErrUpstreamStatus), ShouldBeTrue)
			So(UserMessage(err), ShouldEqual, MsgFailed)
			So(HTTPStatus(err), ShouldEqual, http.StatusBadGateway)
		})

		Convey("When the 200 body is not a record", func() {
			srv := newAPI(t, http.StatusOK, `{"statusCode":200,"body":"<html>"}`, nil)
			_, err := New(srv.URL).SharedVideoDetails(ctx, share.ID("abc"))

			So(errors.Is(err, share.ErrInvalidResponse), ShouldBeTrue)
			So(Classify(err), ShouldEqual, KindInvalidResponse)
		})

		Convey("When the response is too large", func() {
			big := `{"videoUrl":"v","description":"` + strings.Repeat("x", maxResponseBytes) + `"}`
			srv := newAPI(t, http.StatusOK, big, nil)
			_, err := New(srv.URL).SharedVideoDetails(ctx, share.ID("abc"))

			So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
		})

		Convey("When the server cannot be reached", func() {
			srv := newAPI(t, http.StatusOK, record, nil)
			url := srv.URL
			srv.Close()

			core, logs := observer.New(zapcore.DebugLevel)
			c := New(url, WithLogger(logger.New(zap.New(core))))
			_, err := c.SharedVideoDetails(ctx, share.ID("abc"))

			Convey("Then a network error should be reported and logged", func() {
				So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
				So(UserMessage(err), ShouldEqual, MsgUnreachable)
				So(logs.FilterMessage("share API call failed").Len(), ShouldEqual, 1)
			})
		})

		Convey("When the API is slower than the timeout", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer srv.Close()

			_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).SharedVideoDetails(ctx, share.ID("abc"))
			So(errors.Is(err, ErrUnreachable), ShouldBeTrue)
		})

		Convey("When the caller cancels", func() {
			srv := newAPI(t, http.StatusOK, record, nil)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := New(srv.URL).SharedVideoDetails(cctx, share.ID("abc"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(Classify(err), ShouldEqual, KindCanceled)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given lookup errors", t, func() {
		So(Classify(nil), ShouldEqual, KindNone)
		So(UserMessage(nil), ShouldBeEmpty)
		So(HTTPStatus(nil), ShouldEqual, http.StatusOK)

		So(HTTPStatus(share.ErrMissingID), ShouldEqual, http.StatusBadRequest)
		So(UserMessage(fmt.Errorf("wrap: %w", share.ErrInvalidID)), ShouldEqual, MsgInvalidLink)

		So(HTTPStatus(share.ErrExpired), ShouldEqual, http.StatusGone)
		So(UserMessage(share.ErrExpired), ShouldEqual, MsgExpired)

		So(HTTPStatus(ErrNotConfigured), ShouldEqual, http.StatusServiceUnavailable)
		So(Classify(errors.New("boom")), ShouldEqual, KindUnknown)
		So(UserMessage(errors.New("boom")), ShouldEqual, MsgFailed)

		blank := &share.UpstreamError{StatusCode: 500, Message: "  "}
		So(UserMessage(blank), ShouldEqual, MsgFailed)
		So(HTTPStatus(blank), ShouldEqual, http.StatusBadGateway)
	})
}
