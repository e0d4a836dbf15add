package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

const msgLoginAgain = "Your session has expired. Please log in again."

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"address": func(a *voiceadmin.Address) string {
		if a == nil {
			return ""
		}
		var parts []string
		for _, p := range []string{a.Address1, a.Address2, a.City, a.Region, a.PostalCode, a.Country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	},
}

// pageData is what every page template receives.
type pageData struct {
	AppTitle      string
	Title         string
	Env           string
	Authenticated bool
	AccountKey    string
	Flashes       []flash
	Page          any
}

// views renders the embedded HTML templates.
type views struct {
	pages    map[string]*template.Template
	appTitle string
	env      string
	cookies  *sessionCookies
	sessions *service.SessionService
}

func newViews(appTitle, env string, cookies *sessionCookies) *views {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry == layoutTemplate {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(entry, "templates/"), ".html")
		pages[name] = template.Must(
			template.New(name).Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, entry),
		)
	}

	return &views{
		pages:    pages,
		appTitle: appTitle,
		env:      env,
		cookies:  cookies,
	}
}

// render executes page into a buffer and writes it with status. Flashes are
// only consumed when the page renders.
func (v *views) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	ctx := r.Context()

	tmpl, ok := v.pages[page]
	if !ok {
		slogx.FromContext(ctx).Error("unknown template", "template", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := sessionFromContext(ctx)
	pd := pageData{
		AppTitle:   v.appTitle,
		Title:      title,
		Env:        v.env,
		AccountKey: sess.AccountKey,
		Flashes:    readFlashes(r),
		Page:       data,
	}
	if v.sessions != nil {
		pd.Authenticated = v.sessions.IsAuthenticated(ctx, sess.ID)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", pd); err != nil {
		slogx.FromContext(ctx).Error("failed to render template", "template", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	v.cookies.popFlashes(w, r)
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Message string
}

func (v *views) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.render(w, r, status, "error", http.StatusText(status), errorPage{Status: status, Message: message})
}

func (v *views) notFound(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusNotFound, "404", "Page Not Found", nil)
}

// redirect queues a flash message and sends the browser to target.
func (v *views) redirect(w http.ResponseWriter, r *http.Request, target, category, message string) {
	if message != "" {
		v.cookies.addFlash(w, r, category, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// failure is the user-facing outcome of an error from the token lifecycle or
// the Voice Admin API.
type failure struct {
	Status  int
	Message string

	// Reauth means the user has to log in again.
	Reauth bool
	// NotFound means the requested resource does not exist.
	NotFound bool
}

// classify maps err to a failure and logs it at the level operators care
// about. An access token rejected by the API is dropped from the session.
func (v *views) classify(ctx context.Context, err error) failure {
	log := slogx.FromContext(ctx)

	var apiErr *voiceadmin.APIError

	switch {
	case errors.Is(err, voiceadmin.ErrUnauthorized):
		log.Info("access token rejected by voice admin api", "error", err)
		if v.sessions != nil {
			if clearErr := v.sessions.ClearToken(ctx, httpx.SessionIDFromContext(ctx)); clearErr != nil {
				log.Error("failed to clear session token", "error", clearErr)
			}
		}
		return failure{Status: http.StatusUnauthorized, Message: msgLoginAgain, Reauth: true}

	case errors.Is(err, oauthx.ErrNotAuthenticated), errors.Is(err, oauthx.ErrInvalidGrant):
		return failure{Status: http.StatusUnauthorized, Message: msgLoginAgain, Reauth: true}

	case errors.Is(err, voiceadmin.ErrNotFound):
		return failure{Status: http.StatusNotFound, Message: "Not found.", NotFound: true}

	case errors.Is(err, oauthx.ErrMalformedResponse):
		log.Error("token endpoint returned a malformed response", "error", err)
		return failure{Status: http.StatusBadGateway, Message: "GoTo returned an unexpected response. Please try again later."}

	case errors.Is(err, oauthx.ErrNetworkFailure):
		log.Warn("token endpoint unreachable", "error", err)
		return failure{Status: http.StatusServiceUnavailable, Message: "GoTo could not be reached. Please try again."}

	case errors.As(err, &apiErr):
		log.Warn("voice admin api error", "status", apiErr.StatusCode, "path", apiErr.Path, "error", err)
		return failure{Status: http.StatusBadGateway, Message: fmt.Sprintf("GoTo rejected the request (status %d).", apiErr.StatusCode)}

	case errors.Is(err, context.Canceled):
		log.Debug("request cancelled", "error", err)
		return failure{Status: http.StatusServiceUnavailable, Message: "The request was cancelled."}

	default:
		log.Error("request failed", "error", err)
		return failure{Status: http.StatusServiceUnavailable, Message: "GoTo could not be reached. Please try again."}
	}
}

// pageError answers a page request that failed with err. Missing resources
// are reported by redirecting to notFoundURL with notFoundMsg.
func (v *views) pageError(w http.ResponseWriter, r *http.Request, err error, notFoundURL, notFoundMsg string) {
	f := v.classify(r.Context(), err)

	switch {
	case f.Reauth:
		v.redirect(w, r, "/", flashWarning, f.Message)
	case f.NotFound && notFoundURL != "":
		v.redirect(w, r, notFoundURL, flashError, notFoundMsg)
	default:
		v.renderError(w, r, f.Status, f.Message)
	}
}
