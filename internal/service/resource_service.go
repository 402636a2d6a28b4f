package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"go.uber.org/zap"
)

type ResourceService struct {
	resourceRepo ResourceStore
	logger       *zap.Logger

	// now подменяется в тестах
	now func() time.Time
}

func NewResourceService(resourceRepo ResourceStore, logger *zap.Logger) *ResourceService {
	return &ResourceService{
		resourceRepo: resourceRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// canManage библиотекой управляют только администраторы
func canManage(actor *model.Profile) bool {
	return actor != nil && actor.Role == model.RoleAdmin
}

// Categories возвращает все категории
func (s *ResourceService) Categories(ctx context.Context) ([]*model.ResourceCategory, error) {
	categories, err := s.resourceRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory добавляет категорию
func (s *ResourceService) CreateCategory(ctx context.Context, actor *model.Profile, c *model.ResourceCategory) error {
	if !canManage(actor) {
		return model.ErrForbidden
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" || len([]rune(c.Name)) > maxTitleLength {
		return fmt.Errorf("category name must be 1..%d characters: %w", maxTitleLength, model.ErrInvalidInput)
	}

	if err := s.resourceRepo.CreateCategory(ctx, c); err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("Resource category created", zap.Int64("category_id", c.ID), zap.String("name", c.Name))
	return nil
}

// List возвращает материалы по фильтру. Скрытые материалы видят только администраторы.
func (s *ResourceService) List(ctx context.Context, actor *model.Profile, filter model.ResourceFilter) ([]*model.Resource, error) {
	if filter.IncludeInactive && !canManage(actor) {
		return nil, fmt.Errorf("inactive resources: %w", model.ErrForbidden)
	}
	if filter.ContentType != "" && !filter.ContentType.Valid() {
		return nil, fmt.Errorf("content type %q: %w", filter.ContentType, model.ErrInvalidInput)
	}
	if filter.Language != "" && !filter.Language.Valid() {
		return nil, fmt.Errorf("language %q: %w", filter.Language, model.ErrInvalidInput)
	}
	filter.Search = strings.TrimSpace(filter.Search)

	resources, err := s.resourceRepo.List(ctx, filter, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if resources == nil {
		resources = []*model.Resource{}
	}
	return resources, nil
}

// Get возвращает материал с оценками и взаимодействием пользователя
func (s *ResourceService) Get(ctx context.Context, actor *model.Profile, id int64) (*model.Resource, error) {
	res, err := s.resourceRepo.GetByID(ctx, id, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if res == nil || (!res.IsActive && !canManage(actor)) {
		return nil, fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	return res, nil
}

// Create добавляет материал в библиотеку
func (s *ResourceService) Create(ctx context.Context, actor *model.Profile, res *model.Resource) error {
	if !canManage(actor) {
		return model.ErrForbidden
	}
	if err := validateResource(res); err != nil {
		return err
	}

	res.CreatedBy = actor.ID
	if err := s.resourceRepo.Create(ctx, res); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	s.logger.Info("Resource created",
		zap.Int64("resource_id", res.ID),
		zap.String("content_type", string(res.ContentType)),
		zap.Int64("admin_id", actor.ID))
	return nil
}

// Update перезаписывает материал целиком
func (s *ResourceService) Update(ctx context.Context, actor *model.Profile, res *model.Resource) error {
	if !canManage(actor) {
		return model.ErrForbidden
	}
	if err := validateResource(res); err != nil {
		return err
	}

	if err := s.resourceRepo.Update(ctx, res); err != nil {
		return fmt.Errorf("update resource: %w", err)
	}

	s.logger.Info("Resource updated", zap.Int64("resource_id", res.ID), zap.Int64("admin_id", actor.ID))
	return nil
}

// SetActive публикует или скрывает материал
func (s *ResourceService) SetActive(ctx context.Context, actor *model.Profile, id int64, active bool) error {
	if !canManage(actor) {
		return model.ErrForbidden
	}
	if err := s.resourceRepo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set resource active: %w", err)
	}

	s.logger.Info("Resource status changed",
		zap.Int64("resource_id", id),
		zap.Bool("active", active),
		zap.Int64("admin_id", actor.ID))
	return nil
}

// Delete удаляет материал
func (s *ResourceService) Delete(ctx context.Context, actor *model.Profile, id int64) error {
	if !canManage(actor) {
		return model.ErrForbidden
	}
	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}

	s.logger.Info("Resource deleted", zap.Int64("resource_id", id), zap.Int64("admin_id", actor.ID))
	return nil
}

// Interact сохраняет закладку, оценку или прогресс по опубликованному материалу
func (s *ResourceService) Interact(ctx context.Context, actor *model.Profile, id int64, upd model.InteractionUpdate) (*model.ResourceInteraction, error) {
	if upd.IsBookmarked == nil && upd.Rating == nil && upd.Progress == nil {
		return nil, fmt.Errorf("nothing to update: %w", model.ErrInvalidInput)
	}
	if upd.Rating != nil && (*upd.Rating < 1 || *upd.Rating > 5) {
		return nil, fmt.Errorf("rating must be 1..5: %w", model.ErrInvalidInput)
	}
	if upd.Progress != nil && (*upd.Progress < 0 || *upd.Progress > 100) {
		return nil, fmt.Errorf("progress must be 0..100: %w", model.ErrInvalidInput)
	}

	res, err := s.resourceRepo.GetByID(ctx, id, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if res == nil || !res.IsActive {
		return nil, fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}

	in, err := s.resourceRepo.UpsertInteraction(ctx, actor.ID, id, upd, s.now())
	if err != nil {
		return nil, fmt.Errorf("save interaction: %w", err)
	}
	return in, nil
}

func validateResource(res *model.Resource) error {
	res.Title = strings.TrimSpace(res.Title)
	if res.Title == "" || len([]rune(res.Title)) > maxTitleLength {
		return fmt.Errorf("title must be 1..%d characters: %w", maxTitleLength, model.ErrInvalidInput)
	}
	if !res.ContentType.Valid() {
		return fmt.Errorf("content type %q: %w", res.ContentType, model.ErrInvalidInput)
	}
	if !res.Language.Valid() {
		return fmt.Errorf("language %q: %w", res.Language, model.ErrInvalidInput)
	}
	if res.CategoryID <= 0 {
		return fmt.Errorf("category is required: %w", model.ErrInvalidInput)
	}
	if res.DurationMinutes != nil && *res.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive: %w", model.ErrInvalidInput)
	}

	// Статья хранит текст, остальные типы ссылаются на внешний контент
	if res.ContentType == model.ContentArticle {
		if strings.TrimSpace(res.ContentText) == "" {
			return fmt.Errorf("article needs content text: %w", model.ErrInvalidInput)
		}
	} else if !isHTTPURL(res.ContentURL) {
		return fmt.Errorf("%s needs an http(s) content url: %w", res.ContentType, model.ErrInvalidInput)
	}
	if res.ThumbnailURL != "" && !isHTTPURL(res.ThumbnailURL) {
		return fmt.Errorf("thumbnail url: %w", model.ErrInvalidInput)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
