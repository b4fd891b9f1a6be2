package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository/sqlite"
	"github.com/sakif/yatube/internal/service"
)

// recordingRenderer keeps the last rendered page instead of writing HTML.
type recordingRenderer struct {
	name   string
	status int
	data   any
}

func (r *recordingRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	r.name, r.status, r.data = name, status, data
	w.WriteHeader(status)
	return nil
}

type testEnv struct {
	db       *sqlite.DB
	renderer *recordingRenderer
	posts    *PostHandler
	auth     *AuthHandler
	users    *service.UserService
	groups   *service.GroupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	tokens, err := auth.NewTokenService("handler-test-secret-1234", time.Hour)
	require.NoError(t, err)

	users := service.NewUserService(db.Users(), passwords, logger)
	postService := service.NewPostService(db.Posts(), db.Groups(), db.Users(), logger)
	authService := service.NewAuthService(db.Users(), passwords, tokens, logger)
	renderer := &recordingRenderer{}

	return &testEnv{
		db:       db,
		renderer: renderer,
		posts:    NewPostHandler(postService, users, renderer, logger),
		auth:     NewAuthHandler(authService, nil, users, renderer, false, logger),
		users:    users,
		groups:   service.NewGroupService(db.Groups(), logger),
	}
}

func (e *testEnv) user(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), username, "password-"+username)
	require.NoError(t, err)
	return u
}

func (e *testEnv) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g, err := e.groups.Create(context.Background(), "Group "+slug, slug, "About "+slug)
	require.NoError(t, err)
	return g
}

// seedPosts stores n posts by author, one minute apart.
func (e *testEnv) seedPosts(t *testing.T, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var out []*model.Post
	for i := 0; i < n; i++ {
		p := &model.Post{
			Text:      "Post number " + strconv.Itoa(i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			AuthorID:  author.ID,
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, e.db.Posts().Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func (e *testEnv) postCount(t *testing.T) int {
	t.Helper()
	page, err := service.NewPostService(e.db.Posts(), e.db.Groups(), e.db.Users(),
		slog.New(slog.NewTextHandler(io.Discard, nil))).List(context.Background(), "")
	require.NoError(t, err)
	return page.TotalItems
}

// request builds a request with chi URL params and, when viewer is set, a
// signed-in user in the context.
func request(method, target string, form url.Values, viewer *model.User, params map[string]string) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if viewer != nil {
		ctx = auth.ContextWithUserID(ctx, viewer.ID)
	}
	return req.WithContext(ctx)
}

func idParam(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}
