package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// The fakes store copies so tests cannot reach into their state through a
// returned pointer. Set the *Err fields to simulate a failing database.

var errDatabase = errors.New("database is down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users     map[string]*model.User
	nextID    int
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	f.nextID++
	user.ID = "user-" + strconv.Itoa(f.nextID)
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.GitHubID != nil && user.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			*user = *u
			return nil
		}
	}
	return f.Create(ctx, user)
}

type fakeGroupRepo struct {
	groups map[int64]*model.Group
	nextID int64
	getErr error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[int64]*model.Group)}
}

func (f *fakeGroupRepo) Create(_ context.Context, group *model.Group) error {
	for _, g := range f.groups {
		if g.Slug == group.Slug {
			return apperror.Conflict("group", group.Slug)
		}
	}
	f.nextID++
	group.ID = f.nextID
	stored := *group
	f.groups[group.ID] = &stored
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id int64) (*model.Group, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	g, ok := f.groups[id]
	if !ok {
		return nil, apperror.NotFound("group", strconv.FormatInt(id, 10))
	}
	out := *g
	return &out, nil
}

func (f *fakeGroupRepo) GetBySlug(_ context.Context, slug string) (*model.Group, error) {
	for _, g := range f.groups {
		if g.Slug == slug {
			out := *g
			return &out, nil
		}
	}
	return nil, apperror.NotFound("group", slug)
}

func (f *fakeGroupRepo) List(_ context.Context) ([]model.Group, error) {
	out := make([]model.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.groups[id]; !ok {
		return apperror.NotFound("group", strconv.FormatInt(id, 10))
	}
	delete(f.groups, id)
	return nil
}

// fakePostRepo orders and windows posts the way the SQL repositories do.
type fakePostRepo struct {
	posts     map[int64]*model.Post
	nextID    int64
	updates   int
	createErr error
	countErr  error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*model.Post)}
}

func (f *fakePostRepo) Create(_ context.Context, post *model.Post) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	post.ID = f.nextID
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id int64) (*model.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	out := *p
	return &out, nil
}

func (f *fakePostRepo) Count(_ context.Context, filter repository.PostFilter) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.matching(filter)), nil
}

func (f *fakePostRepo) List(_ context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	posts := f.matching(filter)
	if opts.Offset >= len(posts) {
		return []model.Post{}, nil
	}
	posts = posts[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(posts) {
		posts = posts[:opts.Limit]
	}
	return posts, nil
}

func (f *fakePostRepo) Update(_ context.Context, post *model.Post) error {
	stored, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", strconv.FormatInt(post.ID, 10))
	}
	f.updates++
	stored.Text = post.Text
	stored.GroupID = post.GroupID
	return nil
}

func (f *fakePostRepo) matching(filter repository.PostFilter) []model.Post {
	out := []model.Post{}
	for _, p := range f.posts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.GroupID != 0 && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

var (
	_ repository.UserRepository  = (*fakeUserRepo)(nil)
	_ repository.GroupRepository = (*fakeGroupRepo)(nil)
	_ repository.PostRepository  = (*fakePostRepo)(nil)
)
