package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.PostRepository = (*PostDB)(nil)

type PostDB struct {
	pool *pgxpool.Pool
}

const postSelect = `
	SELECT p.id, p.text, p.created_at, p.author_id, p.group_id,
	       u.username,
	       g.title, g.slug, g.description
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_groups g ON g.id = p.group_id`

func (p *PostDB) Create(ctx context.Context, post *model.Post) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO posts (text, created_at, author_id, group_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		post.Text, post.CreatedAt, post.AuthorID, post.GroupID,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating post: %w", err)
	}
	return nil
}

func (p *PostDB) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	post, err := scanPost(p.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting post %d: %w", id, err)
	}
	return post, nil
}

func (p *PostDB) Count(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := postWhere(filter)

	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting posts: %w", err)
	}
	return n, nil
}

func (p *PostDB) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	where, args := postWhere(filter)

	query := postSelect + where + ` ORDER BY p.created_at DESC, p.id DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, max(opts.Limit, 0))
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating posts: %w", err)
	}
	return posts, nil
}

func (p *PostDB) Update(ctx context.Context, post *model.Post) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE posts SET text = $1, group_id = $2 WHERE id = $3`,
		post.Text, post.GroupID, post.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating post %d: %w", post.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("post", strconv.FormatInt(post.ID, 10))
	}
	return nil
}

func postWhere(filter repository.PostFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if filter.GroupID != 0 {
		args = append(args, filter.GroupID)
		clauses = append(clauses, fmt.Sprintf("p.group_id = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		post       model.Post
		author     model.User
		groupTitle *string
		groupSlug  *string
		groupDesc  *string
	)

	if err := row.Scan(
		&post.ID, &post.Text, &post.CreatedAt, &post.AuthorID, &post.GroupID,
		&author.Username,
		&groupTitle, &groupSlug, &groupDesc,
	); err != nil {
		return nil, err
	}

	author.ID = post.AuthorID
	post.Author = &author

	if post.GroupID != nil {
		post.Group = &model.Group{
			ID:          *post.GroupID,
			Title:       deref(groupTitle),
			Slug:        deref(groupSlug),
			Description: deref(groupDesc),
		}
	}
	return &post, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
