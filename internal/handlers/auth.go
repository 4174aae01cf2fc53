package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tarhal-app/backend/internal/auth"
	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/repositories"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         *auth.TokenManager
	secureCookies  bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, tokens *auth.TokenManager, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		secureCookies:  secureCookies,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
}

// RegisterProtectedAuthRoutes registers auth routes that require identity
func (h *AuthHandler) RegisterProtectedAuthRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
}

// Register handles user registration with email, username and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, err := h.userRepository.GetUserByEmail(req.Email); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already in use")
	}
	if _, err := h.userRepository.GetUserByUsername(req.Username); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Username already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hashed),
		DisplayName:  req.DisplayName,
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

// Login authenticates by email or username and issues an access token plus
// an HTTP-only refresh cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.lookupUser(req.EmailOrUsername)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	access, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	refresh, err := h.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	c.SetCookie(h.refreshCookie(refresh, int(h.tokens.RefreshTTL().Seconds())))
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access, "user": user})
}

// Refresh exchanges a valid refresh cookie for a new access token. This is
// the only retry path clients have after an expired access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(h.tokens.RefreshCookieName())
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	claims, err := h.tokens.ParseRefreshToken(c.Request().Context(), cookie.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	user, err := h.userRepository.GetUserByID(claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}
	access, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access})
}

// Logout revokes the refresh token and clears the cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(h.tokens.RefreshCookieName()); err == nil && cookie.Value != "" {
		if claims, err := h.tokens.ParseRefreshToken(c.Request().Context(), cookie.Value); err == nil {
			if err := h.tokens.RevokeRefreshToken(c.Request().Context(), claims); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke token")
			}
		}
	}
	c.SetCookie(h.refreshCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's account
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(middleware.UserID(c))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *AuthHandler) lookupUser(emailOrUsername string) (*models.User, error) {
	for _, r := range emailOrUsername {
		if r == '@' {
			return h.userRepository.GetUserByEmail(emailOrUsername)
		}
	}
	return h.userRepository.GetUserByUsername(emailOrUsername)
}

func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.tokens.RefreshCookieName(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
