package http

import (
	"net/http"
	"strings"

	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/pkg/logger"

	"github.com/labstack/echo/v4"
)

const userContextKey = "auth.user"

// AuthMiddleware resolves the bearer token to a user before any stage runs.
// Authentication failures surface immediately with 401 and no partial
// processing.
func AuthMiddleware(userRepo repository.UserRepository, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			}

			user, err := userRepo.FindByAPIToken(c.Request().Context(), token)
			if err != nil {
				log.Warn("Rejected request with unknown token", logger.ErrorField(err))
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(userContextKey).(*entity.User)
	return user, ok
}
