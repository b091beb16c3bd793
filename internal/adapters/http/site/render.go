package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/dingerzone/pkg/logger"
)

// Page template names.
const (
	pageLanding             = "landing"
	pageLegal               = "legal"
	pageSupport             = "support"
	pageSubscriptionSuccess = "subscription_success"
	pageShared              = "shared"
	pageError               = "error"
)

var pageNames = []string{
	pageLanding,
	pageLegal,
	pageSupport,
	pageSubscriptionSuccess,
	pageShared,
	pageError,
}

// Default document metadata.
const (
	defaultTitle       = "DingerZone - Backyard to Big Leagues"
	defaultDescription = "Record, get AI tips, and show off to coaches with DingerZone."
	contactSubject     = "DingerZone Subscription"
)

// view is the data every page template receives.
type view struct {
	Title       string
	Description string
	BodyClass   string
	Site        Config
	ContactHref string
	Body        any
}

// renderer holds one template set per page, each cloned from the layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	base, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("%w: layout: %w", ErrTemplate, err)
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("%w: clone for %s: %w", ErrTemplate, name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
		}
		r.pages[name] = clone
	}
	return r, nil
}

// render executes page into a buffer first so a template failure can still
// produce a clean 500.
func (s *Server) render(ctx context.Context, w http.ResponseWriter, status int, page string, v view) {
	tpl, ok := s.pages.pages[page]
	if !ok {
		s.logger.Error(ctx, "unknown page template", logger.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if v.Title == "" {
		v.Title = defaultTitle
	}
	if v.Description == "" {
		v.Description = defaultDescription
	}
	v.Site = s.cfg
	v.ContactHref = s.contactHref

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		s.logger.Error(ctx, "page render failed", logger.String("page", page), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug(ctx, "page write failed", logger.String("page", page), logger.Error(err))
	}
}
