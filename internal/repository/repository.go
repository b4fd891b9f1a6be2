// Package repository declares the storage interfaces the services depend on.
// Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"

	"github.com/sakif/yatube/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	AuthorID string
	GroupID  int64
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHub creates or refreshes the account linked to user.GitHubID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	Delete(ctx context.Context, id int64) error
}

// PostRepository returns posts with Author and Group resolved, newest first.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
	// Update writes Text and GroupID only.
	Update(ctx context.Context, post *model.Post) error
}
