// Report HTTP handlers.
//
// Personal reports are generated for and readable by their subject only.
// Team reports can be generated and read by any authenticated user.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/http/middleware"
)

// PersonalReportResponse is a personal report with its recommendations
// split into a list.
type PersonalReportResponse struct {
	*domain.PersonalReport
	Recommendations []string `json:"recommendations,omitempty"`
}

// TeamReportResponse is a team report with its recommendations split into
// a list.
type TeamReportResponse struct {
	*domain.TeamReport
	Recommendations []string `json:"recommendations,omitempty"`
}

func personalReport(r *domain.PersonalReport) PersonalReportResponse {
	return PersonalReportResponse{PersonalReport: r, Recommendations: r.RecommendationList()}
}

func teamReport(r *domain.TeamReport) TeamReportResponse {
	return TeamReportResponse{TeamReport: r, Recommendations: r.RecommendationList()}
}

// GeneratePersonalReport godoc
// @ID          generatePersonalReport
// @Summary     Generate the caller's report
// @Description Summarizes the trailing window (30 days by default).
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Success     201  {object}  handlers.PersonalReportResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Inactive user"
// @Router      /reports/personal [post]
func (h *Handlers) GeneratePersonalReport(c *gin.Context) {
	r, err := h.reports.GeneratePersonal(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, personalReport(r))
}

// ListPersonalReports godoc
// @ID          listPersonalReports
// @Summary     The caller's report history
// @Description Newest first.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page (>=1)"          default(1)
// @Param       page_size  query  int  false  "Page size (1..100)"  default(10)
// @Success     200  {object}  handlers.ListResponse[handlers.PersonalReportResponse]
// @Router      /reports/personal [get]
func (h *Handlers) ListPersonalReports(c *gin.Context) {
	page, pageSize := clampPagination(c)
	rows, total, err := h.reports.PersonalHistory(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	items := make([]PersonalReportResponse, 0, len(rows))
	for i := range rows {
		items = append(items, personalReport(&rows[i]))
	}
	ok(c, http.StatusOK, listResponse(c, items, page, pageSize, total))
}

// GetPersonalReport godoc
// @ID          getPersonalReport
// @Summary     Get one of the caller's reports
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Report ID"
// @Success     200  {object}  handlers.PersonalReportResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /reports/personal/{id} [get]
func (h *Handlers) GetPersonalReport(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	r, err := h.reports.GetPersonal(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, personalReport(r))
}

// GenerateTeamReport godoc
// @ID          generateTeamReport
// @Summary     Generate a team report
// @Description Averages are taken over the team's active members.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Team ID"
// @Success     201  {object}  handlers.TeamReportResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /reports/teams/{id} [post]
func (h *Handlers) GenerateTeamReport(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	r, err := h.reports.GenerateTeam(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, teamReport(r))
}

// ListTeamReports godoc
// @ID          listTeamReports
// @Summary     A team's report history
// @Description Newest first. Supports conditional GET via a weak ETag.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       id             path    int     true   "Team ID"
// @Param       page           query   int     false  "Page (>=1)"          default(1)
// @Param       page_size      query   int     false  "Page size (1..100)"  default(10)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ListResponse[handlers.TeamReportResponse]
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /reports/teams/{id} [get]
func (h *Handlers) ListTeamReports(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	count, latest, err := h.reports.TeamReportsStats(ctx, id)
	if err != nil {
		serviceError(c, err)
		return
	}
	if notModified(c, "team-reports:"+strconv.FormatUint(uint64(id), 10), count, latest) {
		return
	}

	rows, total, err := h.reports.TeamHistory(ctx, id, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	items := make([]TeamReportResponse, 0, len(rows))
	for i := range rows {
		items = append(items, teamReport(&rows[i]))
	}
	ok(c, http.StatusOK, listResponse(c, items, page, pageSize, total))
}

// GetTeamReport godoc
// @ID          getTeamReport
// @Summary     Get a team report
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Report ID"
// @Success     200  {object}  handlers.TeamReportResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /reports/teams/entries/{id} [get]
func (h *Handlers) GetTeamReport(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	r, err := h.reports.GetTeam(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, teamReport(r))
}
