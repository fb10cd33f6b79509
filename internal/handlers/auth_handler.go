package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "equity/internal/errors"
	"equity/internal/logger"
	"equity/internal/middleware"
	"equity/internal/models"
	"equity/internal/services"
	"equity/internal/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
	issuer       *middleware.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer, issuer *middleware.TokenIssuer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService, issuer: issuer}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=120" example:"investor@example.com"`
	Password string `json:"password" binding:"required,max=128" example:"s3cret-passw0rd"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"investor@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-passw0rd"`
}

// UserResponse is the user summary returned to clients.
type UserResponse struct {
	Email        string `json:"email" example:"investor@example.com"`
	IsSubscribed bool   `json:"isSubscribed"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Success bool         `json:"success" example:"true"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

func newUserResponse(user *models.User) UserResponse {
	return UserResponse{Email: user.Email, IsSubscribed: user.IsSubscribed()}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and token generated"
// @Failure     400 {object} apperrors.Response "Missing or invalid fields"
// @Failure     409 {object} apperrors.Response "Email already registered"
// @Failure     429 {object} apperrors.Response "Too many requests"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindingError(err))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, services.AuditRegister, "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, AuthResponse{Success: true, Token: token, User: newUserResponse(user)})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} apperrors.Response "Invalid input"
// @Failure     401 {object} apperrors.Response "Invalid credentials"
// @Failure     429 {object} apperrors.Response "Too many requests"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindingError(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Success: true, Token: token, User: newUserResponse(user)})
}

// Logout revokes the presented token when revocation is enabled. Without a
// token, or with revocation disabled, it only acknowledges.
// @Summary     Logout user
// @Description Revoke the presented token when the blacklist is enabled
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Logged out"
// @Router      /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		if err := h.issuer.Revoke(c.Request.Context(), claims); err != nil {
			logger.Get().Warnw("failed to revoke token on logout",
				"user_id", claims.UserID(),
				"error", err,
			)
		}
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Me returns the current user's summary
// @Summary     Get current user
// @Description Get the authenticated user's email and subscription state
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "Current user"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Router      /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}
