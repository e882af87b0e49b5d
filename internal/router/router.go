package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bizcards/internal/auth"
	"bizcards/internal/handler"
	"bizcards/internal/middleware"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	logger *slog.Logger,
	codec *auth.TokenCodec,
	userHandler *handler.UserHandler,
	cardHandler *handler.CardHandler,
) {
	e.Use(echomw.RequestID())
	e.Use(requestLogger(logger))
	e.Use(echomw.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	guard := middleware.Guard(codec)

	api.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "test complete")
	})

	// Users
	api.POST("/users", userHandler.Register)
	api.POST("/users/login", userHandler.Login)
	api.GET("/users", userHandler.ListUsers, guard)
	api.GET("/users/:id", userHandler.GetUser, guard)
	api.PUT("/users/:id", userHandler.EditUser, guard)
	api.PATCH("/users/:id", userHandler.PatchUser, guard)
	api.DELETE("/users/:id", userHandler.DeleteUser, guard)

	// Cards; my-cards must be registered ahead of :id
	api.GET("/cards", cardHandler.ListCards)
	api.GET("/cards/my-cards", cardHandler.ListMyCards, guard)
	api.GET("/cards/:id", cardHandler.GetCard)
	api.POST("/cards", cardHandler.CreateCard, guard)
	api.PUT("/cards/:id", cardHandler.EditCard, guard)
	api.PATCH("/cards/:id", cardHandler.ToggleLike, guard)
	api.PATCH("/cards/:id/biznumber", cardHandler.ReassignBizNumber, guard)
	api.DELETE("/cards/:id", cardHandler.DeleteCard, guard)
}

// requestLogger emits one structured record per request.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
