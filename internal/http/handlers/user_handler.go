// Account HTTP handlers.
//
// This file exposes REST endpoints for registration, login and the
// caller's own profile:
//   - POST   /auth/register
//   - POST   /auth/login
//   - GET    /auth/me
//   - PUT    /auth/me
//   - DELETE /auth/me   (deactivate)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/http/middleware"
	"github.com/tbourn/aura-backend/internal/services"
)

// ProfileResponse is a user with the name of their team.
type ProfileResponse struct {
	*domain.User
	TeamName *string `json:"team_name,omitempty" example:"Alpha"`
}

func profileResponse(p *services.Profile) ProfileResponse {
	return ProfileResponse{User: p.User, TeamName: p.TeamName}
}

// Register godoc
// @ID          register
// @Summary     Register an account
// @Description Creates an active NEW_USER account. Emails are case-insensitive and unique.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.RegisterInput  true  "Account"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     409   {object}  handlers.ErrorResponse  "Email taken"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Exchanges credentials for a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.LoginInput  true  "Credentials"
// @Success     200   {object}  services.Session
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.users.Login(c.Request.Context(), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// Me godoc
// @ID          getMe
// @Summary     Current user
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	p, err := h.users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, profileResponse(p))
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update current user
// @Description Applies the provided fields. Inactive users cannot be updated.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.UpdateUserInput  true  "Fields to change"
// @Success     200   {object}  handlers.ProfileResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Inactive user or email taken"
// @Router      /auth/me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var in services.UpdateUserInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.users.Update(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, profileResponse(p))
}

// DeactivateMe godoc
// @ID          deactivateMe
// @Summary     Deactivate current user
// @Tags        Auth
// @Security    BearerAuth
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /auth/me [delete]
func (h *Handlers) DeactivateMe(c *gin.Context) {
	if err := h.users.Deactivate(c.Request.Context(), middleware.UserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
