package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.GroupRepository = (*GroupDB)(nil)

type GroupDB struct {
	pool *pgxpool.Pool
}

func (g *GroupDB) Create(ctx context.Context, group *model.Group) error {
	err := g.pool.QueryRow(ctx,
		`INSERT INTO post_groups (title, slug, description) VALUES ($1, $2, $3) RETURNING id`,
		group.Title, group.Slug, group.Description,
	).Scan(&group.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Slug)
		}
		return fmt.Errorf("postgres: creating group %s: %w", group.Slug, err)
	}
	return nil
}

func (g *GroupDB) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	row := g.pool.QueryRow(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE id = $1`, id)
	return scanGroup(row, strconv.FormatInt(id, 10))
}

func (g *GroupDB) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	row := g.pool.QueryRow(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE slug = $1`, slug)
	return scanGroup(row, slug)
}

func (g *GroupDB) List(ctx context.Context) ([]model.Group, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id, title, slug, description FROM post_groups ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var group model.Group
		if err := rows.Scan(&group.ID, &group.Title, &group.Slug, &group.Description); err != nil {
			return nil, fmt.Errorf("postgres: scanning group row: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating groups: %w", err)
	}
	return groups, nil
}

func (g *GroupDB) Delete(ctx context.Context, id int64) error {
	tag, err := g.pool.Exec(ctx, `DELETE FROM post_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting group %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("group", strconv.FormatInt(id, 10))
	}
	return nil
}

func scanGroup(row pgx.Row, key string) (*model.Group, error) {
	var group model.Group
	if err := row.Scan(&group.ID, &group.Title, &group.Slug, &group.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("group", key)
		}
		return nil, fmt.Errorf("postgres: getting group %s: %w", key, err)
	}
	return &group, nil
}
