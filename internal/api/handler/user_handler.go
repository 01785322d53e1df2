package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/core/ports"
)

// UserHandler serves account registration, login and user lookups.
type UserHandler struct {
	users ports.UserService
	auth  ports.AuthService
}

func NewUserHandler(users ports.UserService, auth ports.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=3,max=50,maxbytes=72" redact:"true"`
	Name     string `json:"name" validate:"required,min=3,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=50,maxbytes=72" redact:"true"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup registers a new account with the default USER role.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201
// @Failure      400   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /signup [post]
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	_, err := h.users.SignUp(c.Request().Context(), ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// Login exchanges credentials for a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Router       /login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout revokes the bearer token used for this request.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  api.ErrorResponse
// @Router       /logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.Request().Context(), p); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's own account.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  domain.User
// @Failure      401   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Router       /user [get]
func (h *UserHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetMyUserWithAuthorities(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser returns any account by email. Admin only.
//
// @Summary      Get user by email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  domain.User
// @Failure      401    {object}  api.ErrorResponse
// @Failure      403    {object}  api.ErrorResponse
// @Failure      404    {object}  api.ErrorResponse
// @Router       /user/{email} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	email := c.Param("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	user, err := h.users.GetUserWithAuthorities(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
