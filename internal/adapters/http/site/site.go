// Package site serves the public DingerZone web pages: the landing page, the
// legal and support pages, the subscription confirmation and the shared
// swing video viewer.
package site

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/dingerzone/internal/adapters/http/middleware"
	"github.com/okian/dingerzone/internal/adapters/upstream"
	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/logger"
	"github.com/okian/dingerzone/pkg/metrics"
)

// SharedVideoService resolves share links.
type SharedVideoService interface {
	SharedVideo(ctx context.Context, rawID string) (share.Details, error)
}

// Config carries the links and addresses shown on the pages.
type Config struct {
	SiteURL       string
	AppStoreURL   string
	AppDeepLink   string
	SupportEmail  string
	FeedbackEmail string
}

// Server renders the site pages.
type Server struct {
	svc         SharedVideoService
	cfg         Config
	pages       *renderer
	privacy     template.HTML
	terms       template.HTML
	contactHref string
	logger      logger.Logger
	now         func() time.Time
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for expiry notices.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer parses the embedded templates and renders the legal pages.
func NewServer(svc SharedVideoService, cfg Config, opts ...Option) (*Server, error) {
	s := &Server{
		svc: svc,
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	s.pages = pages

	if s.privacy, err = renderMarkdown("privacy.md", cfg); err != nil {
		return nil, err
	}
	if s.terms, err = renderMarkdown("terms.md", cfg); err != nil {
		return nil, err
	}

	s.contactHref = "mailto:" + cfg.FeedbackEmail + "?subject=" + url.PathEscape(contactSubject)
	return s, nil
}

// Register attaches the page routes to mux. The catch-all "/" renders the
// not-found page, so API routes must use more specific patterns.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /{$}", middleware.Metrics(s.HandleLanding, "landing"))
	mux.HandleFunc("GET /privacy", middleware.Metrics(s.HandlePrivacy, "privacy"))
	mux.HandleFunc("GET /terms", middleware.Metrics(s.HandleTerms, "terms"))
	mux.HandleFunc("GET /support", middleware.Metrics(s.HandleSupport, "support"))
	mux.HandleFunc("GET /subscription-success", middleware.Metrics(s.HandleSubscriptionSuccess, "subscription_success"))
	mux.HandleFunc("GET /shared", middleware.Metrics(s.HandleSharedIndex, "shared"))
	mux.HandleFunc("GET /shared/{$}", middleware.Metrics(s.HandleSharedIndex, "shared"))
	mux.HandleFunc("GET /shared/{shareId}", middleware.Metrics(s.HandleShared, "shared"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticHandler()))
	mux.HandleFunc("/", middleware.Metrics(s.HandleNotFound, "not_found"))
}

func staticHandler() http.Handler {
	files := http.FileServer(FS())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

// HandleLanding handles GET /.
func (s *Server) HandleLanding(w http.ResponseWriter, r *http.Request) {
	metrics.RecordPageView(pageLanding)
	s.render(r.Context(), w, http.StatusOK, pageLanding, view{BodyClass: "page-landing"})
}

// HandlePrivacy handles GET /privacy.
func (s *Server) HandlePrivacy(w http.ResponseWriter, r *http.Request) {
	metrics.RecordPageView("privacy")
	s.render(r.Context(), w, http.StatusOK, pageLegal, view{
		Title:       "DingerZone Privacy Policy",
		Description: "Learn how DingerZone collects, uses, and protects your personal information when using our app and website.",
		BodyClass:   "page-legal",
		Body:        s.privacy,
	})
}

// HandleTerms handles GET /terms.
func (s *Server) HandleTerms(w http.ResponseWriter, r *http.Request) {
	metrics.RecordPageView("terms")
	s.render(r.Context(), w, http.StatusOK, pageLegal, view{
		Title:     "DingerZone Terms of Service",
		BodyClass: "page-legal",
		Body:      s.terms,
	})
}

// HandleSupport handles GET /support.
func (s *Server) HandleSupport(w http.ResponseWriter, r *http.Request) {
	metrics.RecordPageView(pageSupport)
	s.render(r.Context(), w, http.StatusOK, pageSupport, view{
		Title:       "DingerZone Support",
		Description: "Contact the DingerZone support team for assistance with our app and services.",
	})
}

// HandleSubscriptionSuccess handles GET /subscription-success. The optional
// session_id from the checkout redirect is only logged.
func (s *Server) HandleSubscriptionSuccess(w http.ResponseWriter, r *http.Request) {
	metrics.RecordPageView(pageSubscriptionSuccess)
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		s.logger.Info(r.Context(), "subscription completed", logger.String("session_id", sessionID))
	}
	s.render(r.Context(), w, http.StatusOK, pageSubscriptionSuccess, view{
		Title: "Subscription Successful - DingerZone",
		Body:  successView{DeepLink: template.URL(s.cfg.AppDeepLink)}, //nolint:gosec // configured by the operator
	})
}

// HandleSharedIndex handles /shared without an id.
func (s *Server) HandleSharedIndex(w http.ResponseWriter, r *http.Request) {
	metrics.RecordShareError(string(upstream.KindMissingID))
	s.renderError(r.Context(), w, share.ErrMissingID)
}

// HandleShared handles GET /shared/{shareId}.
func (s *Server) HandleShared(w http.ResponseWriter, r *http.Request) {
	rawID := r.PathValue("shareId")
	wantSkeleton := r.URL.Query().Get(viewParam) == viewSkeleton

	d, err := s.svc.SharedVideo(r.Context(), rawID)
	if err != nil {
		s.renderError(r.Context(), w, err)
		return
	}

	v := newSharedView(rawID, d, wantSkeleton, s.now())
	shown := viewOriginal
	if v.Skeleton {
		shown = viewSkeleton
	}
	metrics.RecordShareView(shown)

	title := "DingerZone - Baseball Swing Analysis"
	if v.PlayerName != unknownPlayer {
		title = v.PlayerName + " - DingerZone Swing Analysis"
	}
	w.Header().Set("Cache-Control", "private, no-store")
	s.render(r.Context(), w, http.StatusOK, pageShared, view{
		Title:       title,
		Description: "View a shared baseball swing video with AI-powered analysis from DingerZone.",
		BodyClass:   "page-shared",
		Body:        v,
	})
}

// HandleNotFound renders the 404 page.
func (s *Server) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	metrics.RecordPageView("not_found")
	s.render(r.Context(), w, http.StatusNotFound, pageError, view{
		Title: "Page Not Found - DingerZone",
		Body: errorView{
			Heading:   "Page Not Found",
			Message:   "The page you are looking for does not exist.",
			BackURL:   "/",
			BackLabel: "Back to DingerZone",
		},
	})
}

// HandleInternalError renders the 500 page. It is used by the recover
// middleware.
func (s *Server) HandleInternalError(w http.ResponseWriter, r *http.Request) {
	s.render(r.Context(), w, http.StatusInternalServerError, pageError, view{
		Title: "Error - DingerZone",
		Body: errorView{
			Heading:   "Error",
			Message:   upstream.MsgFailed,
			BackURL:   s.backURL(),
			BackLabel: "Back to DingerZone",
		},
	})
}

func (s *Server) renderError(ctx context.Context, w http.ResponseWriter, err error) {
	w.Header().Set("Cache-Control", "no-store")
	s.render(ctx, w, upstream.HTTPStatus(err), pageError, view{
		Title: "Error - DingerZone",
		Body: errorView{
			Heading:   "Error",
			Message:   upstream.UserMessage(err),
			BackURL:   s.backURL(),
			BackLabel: "Back to DingerZone",
		},
	})
}

func (s *Server) backURL() string {
	if s.cfg.SiteURL == "" {
		return "/"
	}
	return s.cfg.SiteURL
}
