package repository

import (
	"context"
	"fmt"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const forumColumns = `id, parent_id, author_id, author_alias, category, title, body, moderation_status, flags, created_at`

type ForumRepository struct {
	db *base.Repository
}

func NewForumRepository(db *base.Repository) *ForumRepository {
	return &ForumRepository{db: db}
}

// Create сохраняет пост или ответ
func (r *ForumRepository) Create(ctx context.Context, post *model.ForumPost) error {
	query := `
		INSERT INTO forum_posts (parent_id, author_id, author_alias, category, title, body, moderation_status, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	flags := post.Flags
	if flags == nil {
		flags = []string{}
	}

	err := r.db.DB(ctx).QueryRow(
		ctx, query,
		post.ParentID,
		post.AuthorID,
		post.AuthorAlias,
		post.Category,
		post.Title,
		post.Body,
		post.ModerationStatus,
		flags,
	).Scan(&post.ID, &post.CreatedAt)

	if err != nil {
		return fmt.Errorf("create forum post: %w", err)
	}

	return nil
}

// GetByID получает пост по ID
func (r *ForumRepository) GetByID(ctx context.Context, id int64) (*model.ForumPost, error) {
	query := `SELECT ` + forumColumns + ` FROM forum_posts WHERE id = $1`

	post, err := scanForumPost(r.db.DB(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get forum post by id: %w", err)
	}

	return post, nil
}

// ListApprovedTopics получает одобренные корневые посты, category = "" означает все
func (r *ForumRepository) ListApprovedTopics(ctx context.Context, category string) ([]*model.ForumPost, error) {
	query := `
		SELECT ` + forumColumns + `
		FROM forum_posts
		WHERE parent_id IS NULL
		  AND moderation_status = 'approved'
		  AND ($1::text = '' OR category = $1::text)
		ORDER BY created_at DESC
	`
	return r.list(ctx, "get forum topics", query, category)
}

// ListApprovedReplies получает одобренные ответы для набора постов
func (r *ForumRepository) ListApprovedReplies(ctx context.Context, parentIDs []int64) ([]*model.ForumPost, error) {
	query := `
		SELECT ` + forumColumns + `
		FROM forum_posts
		WHERE parent_id = ANY($1)
		  AND moderation_status = 'approved'
		ORDER BY created_at
	`
	return r.list(ctx, "get forum replies", query, parentIDs)
}

func (r *ForumRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.ForumPost, error) {
	rows, err := r.db.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var posts []*model.ForumPost
	for rows.Next() {
		post, err := scanForumPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan forum post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func scanForumPost(row pgx.Row) (*model.ForumPost, error) {
	var post model.ForumPost
	err := row.Scan(
		&post.ID,
		&post.ParentID,
		&post.AuthorID,
		&post.AuthorAlias,
		&post.Category,
		&post.Title,
		&post.Body,
		&post.ModerationStatus,
		&post.Flags,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
