package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// Оценки считаются по всем пользователям, взаимодействие только по запрашивающему
const resourceSelect = `
	SELECT r.id, r.title, r.description, r.content_type, r.category_id, r.language,
	       r.duration_minutes, r.content_url, r.content_text, r.thumbnail_url, r.is_active,
	       COALESCE(r.created_by, 0), r.created_at, r.updated_at,
	       agg.avg_rating, agg.total_ratings,
	       ui.is_bookmarked, ui.rating, ui.progress_percentage, ui.last_accessed_at, ui.updated_at
	FROM resources r
	LEFT JOIN LATERAL (
		SELECT AVG(rating)::float8 AS avg_rating, COUNT(rating) AS total_ratings
		FROM user_resource_interactions
		WHERE resource_id = r.id
	) agg ON true
	LEFT JOIN user_resource_interactions ui ON ui.resource_id = r.id AND ui.user_id = $1
`

const interactionColumns = `resource_id, is_bookmarked, rating, progress_percentage, last_accessed_at, updated_at`

type ResourceRepository struct {
	db *base.Repository
}

func NewResourceRepository(db *base.Repository) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ListCategories получает категории библиотеки по имени
func (r *ResourceRepository) ListCategories(ctx context.Context) ([]*model.ResourceCategory, error) {
	rows, err := r.db.DB(ctx).Query(ctx, `SELECT id, name, description, icon, color FROM resource_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("get resource categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.ResourceCategory
	for rows.Next() {
		var c model.ResourceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan resource category: %w", err)
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

// CreateCategory создаёт категорию, имя уникально
func (r *ResourceRepository) CreateCategory(ctx context.Context, c *model.ResourceCategory) error {
	query := `
		INSERT INTO resource_categories (name, description, icon, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.DB(ctx).QueryRow(ctx, query, c.Name, c.Description, c.Icon, c.Color).Scan(&c.ID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("category %q already exists: %w", c.Name, model.ErrInvalidInput)
		}
		return fmt.Errorf("create resource category: %w", err)
	}

	return nil
}

// List получает материалы по фильтру с оценками и взаимодействием userID
func (r *ResourceRepository) List(ctx context.Context, filter model.ResourceFilter, userID int64) ([]*model.Resource, error) {
	query := resourceSelect + `
		WHERE ($2::boolean OR r.is_active)
		  AND ($3::bigint = 0 OR r.category_id = $3::bigint)
		  AND ($4::text = '' OR r.content_type = $4::text)
		  AND ($5::text = '' OR r.language = $5::text)
		  AND ($6::text = '' OR r.title ILIKE '%' || $6::text || '%' OR r.description ILIKE '%' || $6::text || '%')
		  AND (NOT $7::boolean OR COALESCE(ui.is_bookmarked, false))
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.db.DB(ctx).Query(
		ctx, query,
		userID,
		filter.IncludeInactive,
		filter.CategoryID,
		string(filter.ContentType),
		string(filter.Language),
		filter.Search,
		filter.BookmarkedOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("get resources: %w", err)
	}
	defer rows.Close()

	var resources []*model.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, resource)
	}

	return resources, rows.Err()
}

// GetByID получает материал с оценками и взаимодействием userID
func (r *ResourceRepository) GetByID(ctx context.Context, id, userID int64) (*model.Resource, error) {
	resource, err := scanResource(r.db.DB(ctx).QueryRow(ctx, resourceSelect+` WHERE r.id = $2`, userID, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resource by id: %w", err)
	}
	return resource, nil
}

// Create сохраняет новый материал
func (r *ResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	query := `
		INSERT INTO resources (title, description, content_type, category_id, language, duration_minutes,
		                       content_url, content_text, thumbnail_url, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, 0))
		RETURNING id, created_at, updated_at
	`

	err := r.db.DB(ctx).QueryRow(
		ctx, query,
		res.Title,
		res.Description,
		res.ContentType,
		res.CategoryID,
		res.Language,
		res.DurationMinutes,
		res.ContentURL,
		res.ContentText,
		res.ThumbnailURL,
		res.IsActive,
		res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return fmt.Errorf("category %d: %w", res.CategoryID, model.ErrInvalidInput)
		}
		return fmt.Errorf("create resource: %w", err)
	}

	return nil
}

// Update перезаписывает редактируемые поля материала
func (r *ResourceRepository) Update(ctx context.Context, res *model.Resource) error {
	query := `
		UPDATE resources
		SET title = $2, description = $3, content_type = $4, category_id = $5, language = $6,
		    duration_minutes = $7, content_url = $8, content_text = $9, thumbnail_url = $10,
		    is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.db.DB(ctx).QueryRow(
		ctx, query,
		res.ID,
		res.Title,
		res.Description,
		res.ContentType,
		res.CategoryID,
		res.Language,
		res.DurationMinutes,
		res.ContentURL,
		res.ContentText,
		res.ThumbnailURL,
		res.IsActive,
	).Scan(&res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("resource %d: %w", res.ID, model.ErrNotFound)
		}
		if base.IsForeignKeyViolation(err) {
			return fmt.Errorf("category %d: %w", res.CategoryID, model.ErrInvalidInput)
		}
		return fmt.Errorf("update resource: %w", err)
	}

	return nil
}

// SetActive публикует или скрывает материал
func (r *ResourceRepository) SetActive(ctx context.Context, id int64, active bool) error {
	affected, err := r.db.ExecAffected(ctx, `UPDATE resources SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update resource status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// Delete удаляет материал вместе со взаимодействиями
func (r *ResourceRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// UpsertInteraction применяет изменение взаимодействия. Прогресс только растёт,
// время последнего доступа обновляется вместе с прогрессом.
func (r *ResourceRepository) UpsertInteraction(ctx context.Context, userID, resourceID int64, upd model.InteractionUpdate, now time.Time) (*model.ResourceInteraction, error) {
	query := `
		INSERT INTO user_resource_interactions AS ui
			(user_id, resource_id, is_bookmarked, rating, progress_percentage, last_accessed_at, updated_at)
		VALUES ($1, $2, COALESCE($3::boolean, false), $4::smallint, COALESCE($5::smallint, 0),
		        CASE WHEN $5::smallint IS NULL THEN NULL ELSE $6::timestamptz END, $6::timestamptz)
		ON CONFLICT (user_id, resource_id) DO UPDATE SET
			is_bookmarked       = COALESCE($3::boolean, ui.is_bookmarked),
			rating              = COALESCE($4::smallint, ui.rating),
			progress_percentage = GREATEST(ui.progress_percentage, COALESCE($5::smallint, 0)),
			last_accessed_at    = CASE WHEN $5::smallint IS NULL THEN ui.last_accessed_at ELSE $6::timestamptz END,
			updated_at          = $6::timestamptz
		RETURNING ` + interactionColumns

	var in model.ResourceInteraction
	err := r.db.DB(ctx).QueryRow(ctx, query, userID, resourceID, upd.IsBookmarked, upd.Rating, upd.Progress, now).Scan(
		&in.ResourceID,
		&in.IsBookmarked,
		&in.Rating,
		&in.ProgressPercentage,
		&in.LastAccessedAt,
		&in.UpdatedAt,
	)
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("resource %d: %w", resourceID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("upsert resource interaction: %w", err)
	}

	in.UserID = userID
	return &in, nil
}

func scanResource(row pgx.Row) (*model.Resource, error) {
	var (
		res          model.Resource
		bookmarked   *bool
		rating       *int
		progress     *int
		lastAccessed *time.Time
		updatedAt    *time.Time
	)

	err := row.Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&res.ContentType,
		&res.CategoryID,
		&res.Language,
		&res.DurationMinutes,
		&res.ContentURL,
		&res.ContentText,
		&res.ThumbnailURL,
		&res.IsActive,
		&res.CreatedBy,
		&res.CreatedAt,
		&res.UpdatedAt,
		&res.AverageRating,
		&res.TotalRatings,
		&bookmarked,
		&rating,
		&progress,
		&lastAccessed,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Строка взаимодействия есть, только если LEFT JOIN что-то нашёл
	if bookmarked != nil {
		res.Interaction = &model.ResourceInteraction{
			ResourceID:         res.ID,
			IsBookmarked:       *bookmarked,
			Rating:             rating,
			ProgressPercentage: *progress,
			LastAccessedAt:     lastAccessed,
		}
		if updatedAt != nil {
			res.Interaction.UpdatedAt = *updatedAt
		}
	}

	return &res, nil
}
