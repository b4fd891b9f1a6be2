package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

const MaxGroupTitleLength = 200

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupService is the administrative side of groups. Web handlers only read
// groups, through PostService.
type GroupService struct {
	groups repository.GroupRepository
	logger *slog.Logger
}

func NewGroupService(groups repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, logger: logger}
}

// Create validates and stores a group. A slug already in use is ErrConflict.
func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)

	var errs apperror.ValidationErrors
	switch {
	case title == "":
		errs = append(errs, apperror.ValidationFailed("title", "title is required"))
	case utf8.RuneCountInString(title) > MaxGroupTitleLength:
		errs = append(errs, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxGroupTitleLength)))
	}
	if !slugPattern.MatchString(slug) {
		errs = append(errs, apperror.ValidationFailed("slug",
			"slug must be letters, digits, hyphens or underscores"))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	group := &model.Group{
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(description),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		slog.Int64("id", group.ID),
		slog.String("slug", group.Slug),
	)
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

// DeleteBySlug removes a group. Its posts stay and lose their group.
func (s *GroupService) DeleteBySlug(ctx context.Context, slug string) error {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return err
	}

	s.logger.Info("group deleted",
		slog.Int64("id", group.ID),
		slog.String("slug", group.Slug),
	)
	return nil
}
