package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.GroupRepository = (*GroupDB)(nil)

type GroupDB struct {
	conn *sql.DB
}

func (g *GroupDB) Create(ctx context.Context, group *model.Group) error {
	result, err := g.conn.ExecContext(ctx,
		`INSERT INTO post_groups (title, slug, description) VALUES (?, ?, ?)`,
		group.Title, group.Slug, group.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Slug)
		}
		return fmt.Errorf("sqlite: creating group %s: %w", group.Slug, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading group id: %w", err)
	}
	group.ID = id
	return nil
}

func (g *GroupDB) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	var group model.Group
	err := g.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE id = ?`, id,
	).Scan(&group.ID, &group.Title, &group.Slug, &group.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("group", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting group %d: %w", id, err)
	}
	return &group, nil
}

func (g *GroupDB) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var group model.Group
	err := g.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE slug = ?`, slug,
	).Scan(&group.ID, &group.Title, &group.Slug, &group.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("group", slug)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", slug, err)
	}
	return &group, nil
}

// List returns all groups ordered by title, for the post form selector.
func (g *GroupDB) List(ctx context.Context) ([]model.Group, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT id, title, slug, description FROM post_groups ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var group model.Group
		if err := rows.Scan(&group.ID, &group.Title, &group.Slug, &group.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}
	return groups, nil
}

// Delete removes a group. Posts in it stay and lose their group.
func (g *GroupDB) Delete(ctx context.Context, id int64) error {
	result, err := g.conn.ExecContext(ctx, `DELETE FROM post_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %d: %w", id, err)
	}
	return rowsAffected(result, apperror.NotFound("group", strconv.FormatInt(id, 10)))
}
