package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/service"
)

// LoginPath is where anonymous users are sent when a page needs a login.
const LoginPath = "/auth/login/"

// ErrorPage is the data of the 404 and 500 pages.
type ErrorPage struct {
	Viewer  *model.User
	Message string
}

// views holds what every page handler needs: the renderer, the viewer
// lookup and the logger.
type views struct {
	renderer Renderer
	users    *service.UserService
	logger   *slog.Logger
}

func newViews(renderer Renderer, users *service.UserService, logger *slog.Logger) *views {
	return &views{renderer: renderer, users: users, logger: logger}
}

// viewer returns the signed-in user, or nil for anonymous requests. A
// valid token for a user that no longer exists counts as anonymous.
func (v *views) viewer(r *http.Request) *model.User {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}

	user, err := v.users.GetByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			v.logger.Error("failed to load viewer",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return user
}

func (v *views) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := v.renderer.Render(w, status, name, data); err != nil {
		v.logger.Error("failed to render page",
			slog.String("page", name),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// writeError maps a service error to a page or a redirect.
//
//	ErrNotFound        -> 404 page
//	ErrUnauthenticated -> 302 to the login page, next = current path
//	anything else      -> logged, generic 500 page
//
// ErrForbidden and ErrValidation need request-specific handling and are
// dealt with by the caller before it gets here.
func (v *views) writeError(w http.ResponseWriter, r *http.Request, viewer *model.User, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		v.render(w, r, http.StatusNotFound, PageNotFound, ErrorPage{Viewer: viewer})
	case errors.Is(err, apperror.ErrUnauthenticated):
		http.Redirect(w, r, auth.LoginURL(LoginPath, r.URL.RequestURI()), http.StatusFound)
	default:
		v.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		v.render(w, r, http.StatusInternalServerError, PageError, ErrorPage{Viewer: viewer})
	}
}

// HandleNotFound renders the 404 page for unknown routes.
func (v *views) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusNotFound, PageNotFound, ErrorPage{Viewer: v.viewer(r)})
}

// safeNext keeps redirects on this site: only absolute paths are allowed,
// and "//host" or "/\host" (which browsers treat as another origin) fall
// back to the index.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
