package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/campusmind/support_server/internal/model"
	"github.com/labstack/echo/v4"
)

func (s *Server) listResourceCategories(c echo.Context) error {
	categories, err := s.deps.Resources.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

func (s *Server) createResourceCategory(c echo.Context) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category := &model.ResourceCategory{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
	}
	if err := s.deps.Resources.CreateCategory(c.Request().Context(), actorFrom(c), category); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category)
}

// listResources фильтрует по category_id, content_type, language, q;
// bookmarked=true оставляет закладки, include_inactive=true доступен администраторам
func (s *Server) listResources(c echo.Context) error {
	filter := model.ResourceFilter{
		ContentType: model.ContentType(c.QueryParam("content_type")),
		Language:    model.Language(c.QueryParam("language")),
		Search:      c.QueryParam("q"),
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("category_id: %w", model.ErrInvalidInput)
		}
		filter.CategoryID = id
	}

	var err error
	if filter.IncludeInactive, err = queryBool(c, "include_inactive"); err != nil {
		return err
	}
	if filter.BookmarkedOnly, err = queryBool(c, "bookmarked"); err != nil {
		return err
	}

	resources, err := s.deps.Resources.List(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"resources": resources})
}

func (s *Server) getResource(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	resource, err := s.deps.Resources.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resource)
}

func (s *Server) createResource(c echo.Context) error {
	var req resourceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resource := req.toResource(0)
	if err := s.deps.Resources.Create(c.Request().Context(), actorFrom(c), resource); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resource)
}

func (s *Server) updateResource(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req resourceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resource := req.toResource(id)
	if err := s.deps.Resources.Update(c.Request().Context(), actorFrom(c), resource); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resource)
}

func (s *Server) setResourceActive(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req resourceActiveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.deps.Resources.SetActive(c.Request().Context(), actorFrom(c), id, *req.IsActive); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteResource(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Resources.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) interactResource(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req interactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	interaction, err := s.deps.Resources.Interact(c.Request().Context(), actorFrom(c), id, model.InteractionUpdate{
		IsBookmarked: req.IsBookmarked,
		Rating:       req.Rating,
		Progress:     req.Progress,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interaction)
}

func queryBool(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, model.ErrInvalidInput)
	}
	return v, nil
}
