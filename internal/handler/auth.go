package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/service"
)

const (
	stateCookie = "oauth_state"
	nextCookie  = "oauth_next"
)

// LoginPage is the data of the login form.
type LoginPage struct {
	Viewer        *model.User
	Username      string
	Next          string
	Error         string
	GitHubEnabled bool
}

// AuthHandler signs users in and out.
//
//	GET, POST /auth/login/            -> HandleLoginForm, HandleLogin
//	POST      /auth/logout/           -> HandleLogout
//	GET       /auth/github/login      -> HandleGitHubLogin
//	GET       /auth/github/callback   -> HandleGitHubCallback
type AuthHandler struct {
	*views
	auth         *service.AuthService
	github       *auth.GitHubProvider // nil when GitHub login is not configured
	cookieSecure bool
}

func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	users *service.UserService,
	renderer Renderer,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		views:        newViews(renderer, users, logger),
		auth:         authService,
		github:       github,
		cookieSecure: cookieSecure,
	}
}

// HandleLoginForm shows the login form. Signed-in users go straight to next.
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	viewer := h.viewer(r)
	if viewer != nil {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}

	h.render(w, r, http.StatusOK, PageLogin, LoginPage{
		Next:          next,
		GitHubEnabled: h.github != nil,
	})
}

// HandleLogin checks the credentials, sets the session cookie and
// redirects to next. Bad credentials re-render the form.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	username := r.PostForm.Get("username")
	next := safeNext(r.PostForm.Get("next"))

	result, err := h.auth.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			h.render(w, r, http.StatusOK, PageLogin, LoginPage{
				Username:      username,
				Next:          next,
				Error:         err.Error(),
				GitHubEnabled: h.github != nil,
			})
			return
		}
		h.writeError(w, r, nil, err)
		return
	}

	auth.SetTokenCookie(w, result.Token, h.auth.TokenTTL(), h.cookieSecure)
	http.Redirect(w, r, next, http.StatusFound)
}

// HandleLogout drops the session cookie. It is POST only so that a link
// or prefetch cannot sign anyone out.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleGitHubLogin sends the browser to GitHub.
//
// A random state goes into a short-lived cookie and into the authorize
// URL; the callback only proceeds when both match, which proves the flow
// was started here. next is remembered the same way.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.HandleNotFound(w, r)
		return
	}

	state := xid.New().String()
	h.setFlowCookie(w, stateCookie, state)
	h.setFlowCookie(w, nextCookie, safeNext(r.URL.Query().Get("next")))

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the OAuth flow: check state, exchange the
// code, create or load the user and set the session cookie.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.HandleNotFound(w, r)
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		h.logger.Warn("auth callback: invalid state")
		h.render(w, r, http.StatusBadRequest, PageError, ErrorPage{Message: "Invalid login attempt. Please try again."})
		return
	}

	next := "/"
	if c, err := r.Cookie(nextCookie); err == nil {
		next = safeNext(c.Value)
	}
	h.clearFlowCookie(w, stateCookie)
	h.clearFlowCookie(w, nextCookie)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.render(w, r, http.StatusBadRequest, PageError, ErrorPage{Message: "Missing authorization code."})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.writeError(w, r, nil, err)
		return
	}

	result, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.writeError(w, r, nil, err)
		return
	}

	auth.SetTokenCookie(w, result.Token, h.auth.TokenTTL(), h.cookieSecure)
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth/github/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearFlowCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/auth/github/",
		MaxAge: -1,
	})
}
