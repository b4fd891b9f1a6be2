package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type postFixture struct {
	svc    *PostService
	posts  *fakePostRepo
	groups *fakeGroupRepo
	users  *fakeUserRepo
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	f := &postFixture{
		posts:  newFakePostRepo(),
		groups: newFakeGroupRepo(),
		users:  newFakeUserRepo(),
	}
	f.svc = NewPostService(f.posts, f.groups, f.users, discardLogger())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *postFixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *postFixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}

// seed stores n posts by author, one minute apart, the last one newest.
func (f *postFixture) seed(t *testing.T, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	var out []*model.Post
	for i := 0; i < n; i++ {
		p := &model.Post{
			Text:      "post " + strconv.Itoa(i),
			CreatedAt: fixedNow.Add(time.Duration(i-n) * time.Minute),
			AuthorID:  author.ID,
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, f.posts.Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}

// =========================================================================
// VALIDATE
// =========================================================================

func TestValidate(t *testing.T) {
	f := newPostFixture(t)
	cats := f.group(t, "cats")
	catsID := strconv.FormatInt(cats.ID, 10)

	tests := []struct {
		name       string
		text       string
		groupID    string
		wantText   string
		wantGroup  *int64
		wantErrors map[string]string
	}{
		{
			name:     "text only",
			text:     "Hello",
			wantText: "Hello",
		},
		{
			name:     "text is trimmed",
			text:     "  Hello \n",
			wantText: "Hello",
		},
		{
			name:      "existing group",
			text:      "Hello",
			groupID:   catsID,
			wantText:  "Hello",
			wantGroup: &cats.ID,
		},
		{
			name:       "empty text",
			text:       "",
			wantErrors: map[string]string{"text": MsgEmptyText},
		},
		{
			name:       "whitespace-only text",
			text:       " \t\n ",
			wantErrors: map[string]string{"text": MsgEmptyText},
		},
		{
			name:       "unknown group",
			text:       "Hello",
			groupID:    "999",
			wantErrors: map[string]string{"group": MsgUnknownGroup},
		},
		{
			name:       "non-numeric group",
			text:       "Hello",
			groupID:    "cats",
			wantErrors: map[string]string{"group": MsgUnknownGroup},
		},
		{
			name:       "both fields invalid",
			text:       "   ",
			groupID:    "-1",
			wantErrors: map[string]string{"text": MsgEmptyText, "group": MsgUnknownGroup},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Validate(context.Background(), tt.text, tt.groupID)

			if tt.wantErrors != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperror.ErrValidation))

				var verrs apperror.ValidationErrors
				require.True(t, errors.As(err, &verrs))
				assert.Equal(t, tt.wantErrors, verrs.ByField())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantGroup, got.GroupID)
		})
	}
}

func TestValidate_GroupLookupFailure(t *testing.T) {
	f := newPostFixture(t)
	f.groups.getErr = errDatabase

	_, err := f.svc.Validate(context.Background(), "Hello", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, errDatabase)
	assert.False(t, errors.Is(err, apperror.ErrValidation), "a database failure is not a form error")
}

// =========================================================================
// LISTINGS
// =========================================================================

func TestList_Pagination(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	f.seed(t, nemo, nil, 13)

	tests := []struct {
		rawPage    string
		wantNumber int
		wantItems  int
	}{
		{"", 1, 10},
		{"1", 1, 10},
		{"2", 2, 3},
		{"3", 2, 3},
		{"100", 2, 3},
		{"0", 1, 10},
		{"-4", 1, 10},
		{"abc", 1, 10},
	}

	for _, tt := range tests {
		t.Run("page="+tt.rawPage, func(t *testing.T) {
			page, err := f.svc.List(context.Background(), tt.rawPage)
			require.NoError(t, err)

			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, 2, page.TotalPages)
			assert.Equal(t, 13, page.TotalItems)
			assert.Len(t, page.Items, tt.wantItems)
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	seeded := f.seed(t, nemo, nil, 13)

	first, err := f.svc.List(context.Background(), "1")
	require.NoError(t, err)
	second, err := f.svc.List(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, seeded[12].ID, first.Items[0].ID)
	assert.Equal(t, seeded[0].ID, second.Items[2].ID)

	all := append(first.Items, second.Items...)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "post %d is newer than post %d", i, i-1)
	}
}

func TestList_Empty(t *testing.T) {
	f := newPostFixture(t)

	page, err := f.svc.List(context.Background(), "5")
	require.NoError(t, err)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.TotalPages)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestList_CountFailure(t *testing.T) {
	f := newPostFixture(t)
	f.posts.countErr = errDatabase

	_, err := f.svc.List(context.Background(), "1")
	assert.ErrorIs(t, err, errDatabase)
}

func TestListByGroup(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	cats := f.group(t, "cats")
	f.seed(t, nemo, cats, 4)
	f.seed(t, nemo, nil, 3)

	group, page, err := f.svc.ListByGroup(context.Background(), "cats", "")
	require.NoError(t, err)

	assert.Equal(t, "cats", group.Slug)
	assert.Equal(t, 4, page.TotalItems)
	for _, p := range page.Items {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, cats.ID, *p.GroupID)
	}
}

func TestListByGroup_UnknownSlug(t *testing.T) {
	f := newPostFixture(t)

	_, _, err := f.svc.ListByGroup(context.Background(), "nope", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListByAuthor(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	dory := f.user(t, "dory")
	f.seed(t, nemo, nil, 13)
	f.seed(t, dory, nil, 2)

	author, page, err := f.svc.ListByAuthor(context.Background(), "nemo", "2")
	require.NoError(t, err)

	assert.Equal(t, nemo.ID, author.ID)
	assert.Equal(t, 13, page.TotalItems)
	assert.Equal(t, 2, page.Number)
	assert.Len(t, page.Items, 3)
	for _, p := range page.Items {
		assert.Equal(t, nemo.ID, p.AuthorID)
	}
}

func TestListByAuthor_UnknownUsername(t *testing.T) {
	f := newPostFixture(t)

	_, _, err := f.svc.ListByAuthor(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// GET
// =========================================================================

func TestGet(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	seeded := f.seed(t, nemo, nil, 1)

	post, err := f.svc.Get(context.Background(), strconv.FormatInt(seeded[0].ID, 10))
	require.NoError(t, err)
	assert.Equal(t, seeded[0].Text, post.Text)

	for _, raw := range []string{"999", "abc", "0", "-1", ""} {
		_, err := f.svc.Get(context.Background(), raw)
		assert.ErrorIs(t, err, apperror.ErrNotFound, "Get(%q)", raw)
	}
}

func TestAuthorPostCount(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	f.seed(t, nemo, nil, 5)

	n, err := f.svc.AuthorPostCount(context.Background(), nemo.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate_Success(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	cats := f.group(t, "cats")

	post, err := f.svc.Create(context.Background(), nemo, "  Hello world  ", strconv.FormatInt(cats.ID, 10))
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, "Hello world", post.Text)
	assert.Equal(t, nemo.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, cats.ID, *post.GroupID)
	assert.Equal(t, fixedNow, post.CreatedAt)
	assert.Len(t, f.posts.posts, 1)
}

func TestCreate_WithoutGroup(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")

	post, err := f.svc.Create(context.Background(), nemo, "Hello", "")
	require.NoError(t, err)
	assert.Nil(t, post.GroupID)
}

func TestCreate_Anonymous(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.svc.Create(context.Background(), nil, "Hello", "")

	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Empty(t, f.posts.posts)
}

func TestCreate_AnonymousSkipsValidation(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.svc.Create(context.Background(), nil, "", "999")

	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}

func TestCreate_InvalidInputStoresNothing(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")

	_, err := f.svc.Create(context.Background(), nemo, "   ", "")

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, f.posts.posts)
}

func TestCreate_RepositoryFailure(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	f.posts.createErr = errDatabase

	_, err := f.svc.Create(context.Background(), nemo, "Hello", "")
	assert.ErrorIs(t, err, errDatabase)
}

// =========================================================================
// EDIT
// =========================================================================

func TestGetForEdit(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	dory := f.user(t, "dory")
	post := f.seed(t, nemo, nil, 1)[0]
	id := strconv.FormatInt(post.ID, 10)

	tests := []struct {
		name    string
		viewer  *model.User
		rawID   string
		wantErr error
	}{
		{"author", nemo, id, nil},
		{"anonymous", nil, id, apperror.ErrUnauthenticated},
		{"anonymous, unknown post", nil, "999", apperror.ErrUnauthenticated},
		{"unknown post", nemo, "999", apperror.ErrNotFound},
		{"another user", dory, id, apperror.ErrForbidden},
		{"another user, unknown post", dory, "999", apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.GetForEdit(context.Background(), tt.viewer, tt.rawID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, post.ID, got.ID)
		})
	}
}

func TestUpdate_Author(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	cats := f.group(t, "cats")
	post := f.seed(t, nemo, nil, 1)[0]
	id := strconv.FormatInt(post.ID, 10)

	updated, err := f.svc.Update(context.Background(), nemo, id, " Edited ", strconv.FormatInt(cats.ID, 10))
	require.NoError(t, err)

	assert.Equal(t, "Edited", updated.Text)
	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, "Edited", stored.Text)
	require.NotNil(t, stored.GroupID)
	assert.Equal(t, cats.ID, *stored.GroupID)
	assert.Equal(t, post.AuthorID, stored.AuthorID)
	assert.Equal(t, post.CreatedAt, stored.CreatedAt)
	assert.Len(t, f.posts.posts, 1, "edit must not create a new post")
}

func TestUpdate_ClearsGroup(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	cats := f.group(t, "cats")
	post := f.seed(t, nemo, cats, 1)[0]

	_, err := f.svc.Update(context.Background(), nemo, strconv.FormatInt(post.ID, 10), "Same", "")
	require.NoError(t, err)

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Nil(t, stored.GroupID)
}

func TestUpdate_NonAuthorLeavesPostUntouched(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	dory := f.user(t, "dory")
	post := f.seed(t, nemo, nil, 1)[0]
	id := strconv.FormatInt(post.ID, 10)

	for _, text := range []string{"Hijacked", ""} {
		_, err := f.svc.Update(context.Background(), dory, id, text, "")

		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.False(t, errors.Is(err, apperror.ErrValidation), "validation must not run for a non-author")
	}

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, post.Text, stored.Text)
	assert.Zero(t, f.posts.updates)
}

func TestUpdate_InvalidInputLeavesPostUntouched(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	post := f.seed(t, nemo, nil, 1)[0]

	current, err := f.svc.Update(context.Background(), nemo, strconv.FormatInt(post.ID, 10), "  ", "999")

	var verrs apperror.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.ByField(), 2)
	require.NotNil(t, current)
	assert.Equal(t, post.Text, current.Text)
	assert.Zero(t, f.posts.updates)
}

func TestUpdate_Anonymous(t *testing.T) {
	f := newPostFixture(t)
	nemo := f.user(t, "nemo")
	post := f.seed(t, nemo, nil, 1)[0]

	_, err := f.svc.Update(context.Background(), nil, strconv.FormatInt(post.ID, 10), "x", "")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Zero(t, f.posts.updates)
}
