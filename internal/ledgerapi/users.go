package ledgerapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/validation"
	"github.com/talkincode/toughledger/internal/webserver"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerBody struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=30"`
}

type userBody struct {
	Name string `json:"name" validate:"required,max=255"`
}

type (
	loginRequest      = validation.Request[validation.None, validation.None, loginBody]
	registerRequest   = validation.Request[validation.None, validation.None, registerBody]
	listUsersRequest  = validation.Request[validation.None, validation.PageQuery, validation.None]
	userIDRequest     = validation.Request[validation.IDParams, validation.None, validation.None]
	updateUserRequest = validation.Request[validation.IDParams, validation.None, userBody]
)

func (h *handlers) registerUserRoutes(s *webserver.Server) {
	authn := webserver.RequireAuthentication(h.Sessions)
	adminOnly := webserver.RequireRole(domain.RoleAdmin)

	s.ApiPOST("/users/login", validation.Handle(h.Gate, h.login))
	s.ApiPOST("/users/register", validation.Handle(h.Gate, h.register))
	s.ApiGET("/users", validation.Handle(h.Gate, h.listUsers), authn, adminOnly)
	s.ApiGET("/users/:id", validation.Handle(h.Gate, h.getUser), authn)
	s.ApiPUT("/users/:id", validation.Handle(h.Gate, h.updateUser), authn)
	s.ApiDELETE("/users/:id", validation.Handle(h.Gate, h.deleteUser), authn)
}

// @Summary log in with email and password
// @Tags Users
// @Param body body loginBody true "credentials"
// @Success 200 {object} domain.AuthResult
// @Router /api/users/login [post]
func (h *handlers) login(c echo.Context, req *loginRequest) error {
	result, err := h.Users.Login(c.Request().Context(), req.Body.Email, req.Body.Password)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// @Summary register a new account
// @Tags Users
// @Param body body registerBody true "account"
// @Success 200 {object} domain.AuthResult
// @Router /api/users/register [post]
func (h *handlers) register(c echo.Context, req *registerRequest) error {
	result, err := h.Users.Register(c.Request().Context(), domain.NewUser{
		Name:     req.Body.Name,
		Email:    req.Body.Email,
		Password: req.Body.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, result)
}

// @Summary list users
// @Tags Users
// @Security BearerAuth
// @Param limit query int false "page size (1-1000), requires offset"
// @Param offset query int false "rows to skip, requires limit"
// @Success 200 {object} domain.Page[domain.User]
// @Router /api/users [get]
func (h *handlers) listUsers(c echo.Context, req *listUsersRequest) error {
	page, err := h.Users.GetAll(c.Request().Context(), req.Query.Window())
	if err != nil {
		return err
	}
	return ok(c, page)
}

// @Summary get a user
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Router /api/users/{id} [get]
func (h *handlers) getUser(c echo.Context, req *userIDRequest) error {
	user, err := h.Users.GetByID(c.Request().Context(), req.Params.ID)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// @Summary rename a user
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body userBody true "user"
// @Success 200 {object} domain.User
// @Router /api/users/{id} [put]
func (h *handlers) updateUser(c echo.Context, req *updateUserRequest) error {
	user, err := h.Users.UpdateByID(c.Request().Context(), req.Params.ID, req.Body.Name)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// @Summary delete a user and their transactions
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Router /api/users/{id} [delete]
func (h *handlers) deleteUser(c echo.Context, req *userIDRequest) error {
	if err := h.Users.DeleteByID(c.Request().Context(), req.Params.ID); err != nil {
		return err
	}
	return noContent(c)
}
