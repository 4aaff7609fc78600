// Team HTTP handlers.
//
// Membership rules (one team per user, one manager per team, last member
// deletes the team) are enforced by the TeamService; these handlers only
// translate requests and results.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/http/middleware"
	"github.com/tbourn/aura-backend/internal/services"
)

// TeamResponse is a team with its active member count.
type TeamResponse struct {
	*domain.Team
	ActiveMembers int `json:"active_members" example:"4"`
}

func teamResponse(t *domain.Team) TeamResponse {
	return TeamResponse{Team: t, ActiveMembers: len(t.ActiveMembers())}
}

// CreateTeam godoc
// @ID          createTeam
// @Summary     Create a team
// @Description The caller must not belong to a team and becomes its MANAGER.
// @Tags        Teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.CreateTeamInput  true  "Team"
// @Success     201   {object}  handlers.TeamResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Already in a team"
// @Router      /teams [post]
func (h *Handlers) CreateTeam(c *gin.Context) {
	var in services.CreateTeamInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.teams.CreateTeam(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, teamResponse(t))
}

// ListTeams godoc
// @ID          listTeams
// @Summary     List teams
// @Description Paginated, ordered by name then id. Supports conditional GET via a weak ETag.
// @Tags        Teams
// @Produce     json
// @Security    BearerAuth
// @Param       page       query     int  false  "Page (>=1)"            default(1)
// @Param       page_size  query     int  false  "Page size (1..100)"    default(10)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ListResponse[handlers.TeamResponse]
// @Success     304  {string}  string  "Not Modified"
// @Router      /teams [get]
func (h *Handlers) ListTeams(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	count, latest, err := h.teams.TeamsStats(ctx)
	if err != nil {
		serviceError(c, err)
		return
	}
	if notModified(c, "teams", count, latest) {
		return
	}

	teams, total, err := h.teams.ListTeams(ctx, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	items := make([]TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, teamResponse(&teams[i]))
	}
	ok(c, http.StatusOK, listResponse(c, items, page, pageSize, total))
}

// GetTeam godoc
// @ID          getTeam
// @Summary     Get a team with its members
// @Tags        Teams
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Team ID"
// @Success     200  {object}  handlers.TeamResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /teams/{id} [get]
func (h *Handlers) GetTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	t, err := h.teams.GetTeam(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, teamResponse(t))
}

// UpdateTeam godoc
// @ID          updateTeam
// @Summary     Update a team
// @Description Only the team's manager may update it.
// @Tags        Teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                       true  "Team ID"
// @Param       body  body      services.UpdateTeamInput  true  "Fields to change"
// @Success     200   {object}  handlers.TeamResponse
// @Failure     403   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /teams/{id} [put]
func (h *Handlers) UpdateTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in services.UpdateTeamInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.teams.UpdateTeam(c.Request.Context(), id, middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, teamResponse(t))
}

// DeleteTeam godoc
// @ID          deleteTeam
// @Summary     Delete a team
// @Description Only the manager may delete. Members are returned to NEW_USER.
// @Tags        Teams
// @Security    BearerAuth
// @Param       id   path  int  true  "Team ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /teams/{id} [delete]
func (h *Handlers) DeleteTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.teams.DeleteTeam(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// JoinTeam godoc
// @ID          joinTeam
// @Summary     Join a team
// @Description The caller must not belong to a team and becomes an EMPLOYEE.
// @Tags        Teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                     true  "Team ID"
// @Param       body  body      services.JoinTeamInput  true  "Membership details"
// @Success     200   {object}  handlers.TeamResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Already in a team"
// @Router      /teams/{id}/join [post]
func (h *Handlers) JoinTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in services.JoinTeamInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.teams.JoinTeam(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, teamResponse(t))
}

// LeaveTeam godoc
// @ID          leaveTeam
// @Summary     Leave the current team
// @Description A manager cannot leave while other members remain. The last member leaving deletes the team.
// @Tags        Teams
// @Security    BearerAuth
// @Success     204  {string}  string  "No Content"
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /teams/leave [post]
func (h *Handlers) LeaveTeam(c *gin.Context) {
	if err := h.teams.LeaveTeam(c.Request.Context(), middleware.UserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// AddMember godoc
// @ID          addMember
// @Summary     Add a member to the manager's team
// @Tags        Teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.AddMemberInput  true  "Member"
// @Success     200   {object}  handlers.TeamResponse
// @Failure     403   {object}  handlers.ErrorResponse  "Not a manager"
// @Failure     409   {object}  handlers.ErrorResponse  "Member already in a team"
// @Router      /teams/members [post]
func (h *Handlers) AddMember(c *gin.Context) {
	var in services.AddMemberInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.teams.AddMember(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, teamResponse(t))
}

// RemoveMember godoc
// @ID          removeMember
// @Summary     Remove a member from the manager's team
// @Tags        Teams
// @Security    BearerAuth
// @Param       memberId  path  int  true  "User ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /teams/members/{memberId} [delete]
func (h *Handlers) RemoveMember(c *gin.Context) {
	memberID, valid := pathID(c, "memberId")
	if !valid {
		return
	}
	if err := h.teams.RemoveMember(c.Request.Context(), middleware.UserID(c), memberID); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
