// Package service holds the business rules of yatube.
//
// Handlers parse HTTP and render pages; repositories run SQL. Everything in
// between lives here: who may create or edit a post, how form input is
// validated, and how listings are paginated. Services receive the viewer as
// an explicit *model.User (nil for anonymous requests) instead of reading it
// from a request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/paginate"
	"github.com/sakif/yatube/internal/repository"
)

// PostsPerPage is the page size of every post listing.
const PostsPerPage = 10

// Field error messages shown next to the form inputs.
const (
	MsgEmptyText    = "Post text must not be empty"
	MsgUnknownGroup = "Choose one of the listed groups"
)

// ValidatedPost is form input that passed Validate.
type ValidatedPost struct {
	Text    string
	GroupID *int64 // nil when no group was chosen
}

type PostService struct {
	posts  repository.PostRepository
	groups repository.GroupRepository
	users  repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:  posts,
		groups: groups,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// =========================================================================
// LISTINGS
// =========================================================================

// List returns one page of all posts, newest first. rawPage is the ?page=
// query value and is never an error.
func (s *PostService) List(ctx context.Context, rawPage string) (paginate.Page[model.Post], error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

// ListByGroup returns the group with the given slug and one page of its posts.
func (s *PostService) ListByGroup(ctx context.Context, slug, rawPage string) (*model.Group, paginate.Page[model.Post], error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, paginate.Page[model.Post]{}, err
	}

	page, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, paginate.Page[model.Post]{}, err
	}
	return group, page, nil
}

// ListByAuthor returns the user with the given username and one page of
// their posts. page.TotalItems is the author's post count.
func (s *PostService) ListByAuthor(ctx context.Context, username, rawPage string) (*model.User, paginate.Page[model.Post], error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, paginate.Page[model.Post]{}, err
	}

	page, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, paginate.Page[model.Post]{}, err
	}
	return author, page, nil
}

// page counts the matching posts first so the database only returns the
// rows of the requested window.
func (s *PostService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (paginate.Page[model.Post], error) {
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return paginate.Page[model.Post]{}, fmt.Errorf("counting posts: %w", err)
	}

	w := paginate.NewWindow(total, PostsPerPage, paginate.ParseNumber(rawPage))

	posts, err := s.posts.List(ctx, filter, repository.ListOptions{Limit: w.Limit, Offset: w.Offset})
	if err != nil {
		return paginate.Page[model.Post]{}, fmt.Errorf("listing posts: %w", err)
	}

	return paginate.FromWindow(posts, total, w), nil
}

// =========================================================================
// SINGLE POSTS
// =========================================================================

// Get returns the post whose id is rawID. Ids that are not positive
// integers are reported as not found, like any other unknown id.
func (s *PostService) Get(ctx context.Context, rawID string) (*model.Post, error) {
	id, err := parsePostID(rawID)
	if err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, id)
}

// AuthorPostCount is the number of posts written by the user authorID.
func (s *PostService) AuthorPostCount(ctx context.Context, authorID string) (int, error) {
	n, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: authorID})
	if err != nil {
		return 0, fmt.Errorf("counting posts of %s: %w", authorID, err)
	}
	return n, nil
}

// Groups lists the choices for the group selector of the post form.
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// =========================================================================
// FORM VALIDATION
// =========================================================================

// Validate checks raw form input for a post.
//
// The text is trimmed and must not be empty. An empty rawGroupID means no
// group; anything else must be the id of an existing group. Both fields are
// always checked and every failure is returned in one
// apperror.ValidationErrors. The only side effect is the group lookup.
func (s *PostService) Validate(ctx context.Context, rawText, rawGroupID string) (ValidatedPost, error) {
	var (
		out  ValidatedPost
		errs apperror.ValidationErrors
	)

	out.Text = strings.TrimSpace(rawText)
	if out.Text == "" {
		errs = append(errs, apperror.ValidationFailed("text", MsgEmptyText))
	}

	if rawGroupID = strings.TrimSpace(rawGroupID); rawGroupID != "" {
		groupID, err := s.resolveGroup(ctx, rawGroupID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			errs = append(errs, apperror.ValidationFailed("group", MsgUnknownGroup))
		case err != nil:
			return ValidatedPost{}, err
		default:
			out.GroupID = &groupID
		}
	}

	if len(errs) > 0 {
		return ValidatedPost{}, errs
	}
	return out, nil
}

// resolveGroup returns ErrNotFound for ids that are malformed or unknown.
func (s *PostService) resolveGroup(ctx context.Context, rawGroupID string) (int64, error) {
	id, err := strconv.ParseInt(rawGroupID, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NotFound("group", rawGroupID)
	}

	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("looking up group %d: %w", id, err)
	}
	return group.ID, nil
}

// =========================================================================
// CREATE AND EDIT
// =========================================================================

// Create validates the input and stores a new post written by viewer,
// timestamped now. Anonymous viewers get ErrUnauthenticated before any
// validation runs.
func (s *PostService) Create(ctx context.Context, viewer *model.User, rawText, rawGroupID string) (*model.Post, error) {
	if viewer == nil {
		return nil, apperror.Unauthenticated("login required to create a post")
	}

	input, err := s.Validate(ctx, rawText, rawGroupID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Text:      input.Text,
		CreatedAt: s.now().UTC(),
		AuthorID:  viewer.ID,
		GroupID:   input.GroupID,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", viewer.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.String("author", viewer.Username),
	)

	return post, nil
}

// GetForEdit returns the post if viewer may edit it.
//
// The checks run in a fixed order: anonymous viewers get
// ErrUnauthenticated, unknown posts ErrNotFound, and anyone but the author
// ErrForbidden.
func (s *PostService) GetForEdit(ctx context.Context, viewer *model.User, rawID string) (*model.Post, error) {
	if viewer == nil {
		return nil, apperror.Unauthenticated("login required to edit a post")
	}

	post, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}

	if !post.IsAuthoredBy(viewer) {
		return nil, apperror.Forbidden("only the author can edit this post")
	}

	return post, nil
}

// Update replaces the text and group of an existing post. Authorization is
// checked before validation, so a non-author never learns whether their
// input was valid and the post is never touched. The author, creation time
// and id stay as they were.
//
// On a validation failure the returned post is the stored one, for
// re-rendering the form.
func (s *PostService) Update(ctx context.Context, viewer *model.User, rawID, rawText, rawGroupID string) (*model.Post, error) {
	post, err := s.GetForEdit(ctx, viewer, rawID)
	if err != nil {
		return nil, err
	}

	input, err := s.Validate(ctx, rawText, rawGroupID)
	if err != nil {
		return post, err
	}

	post.Text = input.Text
	post.GroupID = input.GroupID
	post.Group = nil

	if err := s.posts.Update(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.Int64("id", post.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post %d: %w", post.ID, err)
	}

	s.logger.Info("post updated",
		slog.Int64("id", post.ID),
		slog.String("author", viewer.Username),
	)

	return post, nil
}

func parsePostID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NotFound("post", raw)
	}
	return id, nil
}
