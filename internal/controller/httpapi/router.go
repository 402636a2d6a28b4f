// Package httpapi exposes the counseling services over HTTP with echo.
package httpapi

import (
	"net/http"

	"github.com/campusmind/support_server/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

type Deps struct {
	Profiles     *service.ProfileService
	Availability *service.AvailabilityService
	Slots        *service.SlotService
	Bookings     *service.BookingService
	Screenings   *service.ScreeningService
	Forum        *service.ForumService
	Chat         *service.ChatService
	Resources    *service.ResourceService
	Calendar     *service.Calendar

	// BotUsername имя бота для ссылок t.me, пусто если бот не настроен
	BotUsername string
}

type Server struct {
	deps   Deps
	auth   *authenticator
	logger *zap.Logger
}

// NewRouter собирает echo со всеми маршрутами API
func NewRouter(deps Deps, jwtSecret []byte, logger *zap.Logger) *echo.Echo {
	s := &Server{
		deps:   deps,
		auth:   newAuthenticator(jwtSecret, deps.Profiles),
		logger: logger,
	}

	validate := validator.New()
	registerValidators(validate)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Запросы логирует zap, встроенный логгер echo только для предупреждений
	e.Logger.SetLevel(log.WARN)
	e.Validator = &requestValidator{validate: validate}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api")

	// Анонимная запись доступна без токена
	api.POST("/bookings", s.createBooking, s.auth.optional)

	authed := api.Group("", s.auth.required)

	authed.GET("/me", s.getMe)
	authed.POST("/me/telegram/link", s.createTelegramLink)
	authed.DELETE("/me/telegram", s.unlinkTelegram)

	authed.GET("/counselors", s.listCounselors)
	authed.GET("/counselors/:id/slots", s.listSlots)
	authed.GET("/counselors/:id/slots/available-counts", s.availableCounts)
	authed.GET("/counselors/:id/week.png", s.weekImage)

	// Роль проверяется на каждом маршруте, чтобы неизвестные пути отвечали 404
	counselorOnly := requireRole(roleCounselor)
	authed.GET("/availability", s.getAvailability, counselorOnly)
	authed.PUT("/availability", s.saveAvailability, counselorOnly)
	authed.POST("/availability/generate", s.generateSlots, counselorOnly)
	authed.POST("/slots/:id/block", s.blockSlot, counselorOnly)
	authed.POST("/slots/:id/unblock", s.unblockSlot, counselorOnly)
	authed.GET("/bookings/summary", s.bookingSummary, counselorOnly)
	authed.POST("/bookings/:id/confirm", s.confirmBooking, counselorOnly)
	authed.POST("/bookings/:id/cancel", s.cancelBooking, counselorOnly)
	authed.POST("/bookings/:id/complete", s.completeBooking, counselorOnly)

	authed.GET("/bookings", s.listBookings)
	authed.GET("/bookings/:id", s.getBooking)

	authed.POST("/screenings", s.submitScreening)
	authed.GET("/screenings", s.screeningHistory)

	authed.GET("/forum/posts", s.listPosts)
	authed.POST("/forum/posts", s.createPost)
	authed.POST("/forum/posts/:id/replies", s.replyPost)

	authed.POST("/chat", s.chat)

	adminOnly := requireRole(roleAdmin)
	authed.GET("/resources", s.listResources)
	authed.GET("/resources/categories", s.listResourceCategories)
	authed.POST("/resources/categories", s.createResourceCategory, adminOnly)
	authed.GET("/resources/:id", s.getResource)
	authed.PUT("/resources/:id/interaction", s.interactResource)
	authed.POST("/resources", s.createResource, adminOnly)
	authed.PUT("/resources/:id", s.updateResource, adminOnly)
	authed.PATCH("/resources/:id/active", s.setResourceActive, adminOnly)
	authed.DELETE("/resources/:id", s.deleteResource, adminOnly)

	return e
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if actor := actorFrom(c); actor != nil {
				fields = append(fields, zap.Int64("actor_id", actor.ID))
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("Request", fields...)
			return nil
		},
	})
}
