package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/campusmind/support_server/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	actorKey      = "actor"
	roleCounselor = model.RoleCounselor
	roleAdmin     = model.RoleAdmin
)

// Claims токена доступа. Токены выпускает внешний провайдер
// идентичности, сервер их только проверяет.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type profileGetter interface {
	GetProfile(ctx context.Context, id int64) (*model.Profile, error)
}

type authenticator struct {
	secret   []byte
	profiles profileGetter
}

func newAuthenticator(secret []byte, profiles profileGetter) *authenticator {
	return &authenticator{secret: secret, profiles: profiles}
}

// required пропускает только запросы с действительным токеном
func (a *authenticator) required(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request())
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		if err := a.authenticate(c, token); err != nil {
			return err
		}
		return next(c)
	}
}

// optional проверяет токен, если он передан, и пропускает запрос без него
func (a *authenticator) optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token, ok := bearerToken(c.Request()); ok {
			if err := a.authenticate(c, token); err != nil {
				return err
			}
		}
		return next(c)
	}
}

func (a *authenticator) authenticate(c echo.Context, raw string) error {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	// Роль берётся из профиля, роль в токене могла устареть
	profile, err := a.profiles.GetProfile(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown profile")
		}
		return err
	}

	c.Set(actorKey, profile)
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func requireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := actorFrom(c)
			if actor == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			return model.ErrForbidden
		}
	}
}

func actorFrom(c echo.Context) *model.Profile {
	actor, _ := c.Get(actorKey).(*model.Profile)
	return actor
}
