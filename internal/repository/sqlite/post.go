package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

var _ repository.PostRepository = (*PostDB)(nil)

type PostDB struct {
	conn *sql.DB
}

// postSelect joins author and group so callers get fully resolved posts.
const postSelect = `
	SELECT p.id, p.text, p.created_at, p.author_id, p.group_id,
	       u.username,
	       g.title, g.slug, g.description
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_groups g ON g.id = p.group_id`

// Create inserts post as given; the caller sets AuthorID and CreatedAt.
func (p *PostDB) Create(ctx context.Context, post *model.Post) error {
	result, err := p.conn.ExecContext(ctx,
		`INSERT INTO posts (text, created_at, author_id, group_id) VALUES (?, ?, ?, ?)`,
		post.Text, post.CreatedAt, post.AuthorID, post.GroupID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading post id: %w", err)
	}
	post.ID = id
	return nil
}

func (p *PostDB) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	row := p.conn.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return post, nil
}

func (p *PostDB) Count(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := postWhere(filter)

	var n int
	if err := p.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

// List returns one window of posts, newest first. Posts created in the same
// instant come out highest id first.
func (p *PostDB) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	where, args := postWhere(filter)

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := p.conn.QueryContext(ctx,
		postSelect+where+` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, max(opts.Limit, 0))
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// Update rewrites text and group. Author and created_at are never touched.
func (p *PostDB) Update(ctx context.Context, post *model.Post) error {
	result, err := p.conn.ExecContext(ctx,
		`UPDATE posts SET text = ?, group_id = ? WHERE id = ?`,
		post.Text, post.GroupID, post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}
	return rowsAffected(result, apperror.NotFound("post", strconv.FormatInt(post.ID, 10)))
}

func postWhere(filter repository.PostFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.AuthorID != "" {
		clauses = append(clauses, "p.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.GroupID != 0 {
		clauses = append(clauses, "p.group_id = ?")
		args = append(args, filter.GroupID)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*model.Post, error) {
	var (
		post       model.Post
		author     model.User
		groupID    sql.NullInt64
		groupTitle sql.NullString
		groupSlug  sql.NullString
		groupDesc  sql.NullString
	)

	if err := s.Scan(
		&post.ID, &post.Text, &post.CreatedAt, &post.AuthorID, &groupID,
		&author.Username,
		&groupTitle, &groupSlug, &groupDesc,
	); err != nil {
		return nil, err
	}

	author.ID = post.AuthorID
	post.Author = &author

	if groupID.Valid {
		id := groupID.Int64
		post.GroupID = &id
		post.Group = &model.Group{
			ID:          id,
			Title:       groupTitle.String,
			Slug:        groupSlug.String,
			Description: groupDesc.String,
		}
	}
	return &post, nil
}
