// Package domain defines the persistence models for users, teams,
// recognitions, sentiment entries, and reports. These types are mapped with
// GORM and form the core data layer of the well-being tracker.
package domain

import (
	"strings"
	"time"
)

// Role is the closed set of membership roles. Roles are compared with exact
// equality; there is no case folding anywhere in the rule engine.
type Role string

const (
	RoleNewUser  Role = "NEW_USER"
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNewUser, RoleEmployee, RoleManager:
		return true
	}
	return false
}

// User is a registered person. Users are never hard-deleted; Active is the
// soft-delete flag and must be re-checked by every consuming operation.
//
// Fields:
//   - Email: unique, stored lowercase.
//   - Role: NEW_USER until the user joins or creates a team.
//   - Title / AdmissionDate: set while the user belongs to a team.
//   - TeamID: nullable membership link; cleared when the team is deleted.
type User struct {
	ID            uint       `json:"id"                       gorm:"primaryKey"`
	Name          string     `json:"name"                     gorm:"type:varchar(100);not null"`
	Email         string     `json:"email"                    gorm:"type:varchar(150);not null;uniqueIndex:ux_users_email"`
	PasswordHash  string     `json:"-"                        gorm:"type:varchar(255);not null"`
	Role          Role       `json:"role"                     gorm:"type:varchar(16);not null;check:role IN ('NEW_USER','EMPLOYEE','MANAGER')"`
	Title         *string    `json:"title,omitempty"          gorm:"type:varchar(100)"`
	AdmissionDate *time.Time `json:"admission_date,omitempty"`
	Active        bool       `json:"active"                   gorm:"not null"`
	TeamID        *uint      `json:"team_id,omitempty"        gorm:"index:idx_users_team"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// InTeam reports whether the user is currently linked to teamID.
func (u *User) InTeam(teamID uint) bool {
	return u.TeamID != nil && *u.TeamID == teamID
}

// Team is a group of users with exactly one manager. Deleting a team clears
// its members' link and cascades to its reports.
type Team struct {
	ID          uint      `json:"id"                    gorm:"primaryKey"`
	Name        string    `json:"name"                  gorm:"type:varchar(100);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Members []User `json:"members,omitempty" gorm:"foreignKey:TeamID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Team.
func (Team) TableName() string { return "teams" }

// ActiveMembers returns the loaded members whose Active flag is set.
func (t *Team) ActiveMembers() []User {
	out := make([]User, 0, len(t.Members))
	for _, m := range t.Members {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Recognition is a peer endorsement from Giver to Receiver.
//
// The two unique indexes back the temporal rules at the storage layer:
//   - ux_recognitions_monthly: one per (giver, receiver, calendar month).
//   - ux_recognitions_daily: one per (giver, calendar day) among the rows
//     that claimed the daily slot. Rows with a NULL slot never collide.
//
// Recognitions are immutable; only the giver may delete one.
type Recognition struct {
	ID          uint      `json:"id"                    gorm:"primaryKey"`
	Title       string    `json:"title"                 gorm:"type:varchar(100);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:varchar(500)"`
	GivenAt     time.Time `json:"given_at"              gorm:"not null;index:idx_recognitions_receiver_given,priority:2;index:idx_recognitions_giver_given,priority:2"`
	GiverID     uint      `json:"giver_id"              gorm:"not null;uniqueIndex:ux_recognitions_monthly,priority:1;uniqueIndex:ux_recognitions_daily,priority:1;index:idx_recognitions_giver_given,priority:1"`
	ReceiverID  uint      `json:"receiver_id"           gorm:"not null;uniqueIndex:ux_recognitions_monthly,priority:2;index:idx_recognitions_receiver_given,priority:1"`
	MonthKey    string    `json:"-"                     gorm:"type:char(7);not null;uniqueIndex:ux_recognitions_monthly,priority:3"`
	DailySlot   *string   `json:"-"                     gorm:"type:char(10);uniqueIndex:ux_recognitions_daily,priority:2"`
	CreatedAt   time.Time `json:"created_at"`

	Giver    User `json:"-" gorm:"foreignKey:GiverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Receiver User `json:"-" gorm:"foreignKey:ReceiverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Recognition.
func (Recognition) TableName() string { return "recognitions" }

// SentimentEntry is a daily self-reported mood. One per user per calendar day,
// enforced by ux_sentiments_user_day.
type SentimentEntry struct {
	ID          uint      `json:"id"                    gorm:"primaryKey"`
	Label       string    `json:"label"                 gorm:"type:varchar(50);not null"`
	Score       *float64  `json:"score,omitempty"       gorm:"check:score IS NULL OR (score >= 0 AND score <= 10)"`
	Description *string   `json:"description,omitempty" gorm:"type:varchar(500)"`
	RecordedAt  time.Time `json:"recorded_at"           gorm:"not null;index:idx_sentiments_user_recorded,priority:2"`
	DayKey      string    `json:"day"                   gorm:"type:char(10);not null;uniqueIndex:ux_sentiments_user_day,priority:2"`
	UserID      uint      `json:"user_id"               gorm:"not null;uniqueIndex:ux_sentiments_user_day,priority:1;index:idx_sentiments_user_recorded,priority:1"`
	CreatedAt   time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for SentimentEntry.
func (SentimentEntry) TableName() string { return "sentiment_entries" }

// Engagement is the optional model-derived block shared by both report kinds.
// Recommendations are stored newline-joined.
type Engagement struct {
	PredictedPct    *float64 `json:"predicted_engagement,omitempty" gorm:"column:predicted_pct"`
	Classification  *string  `json:"classification,omitempty"       gorm:"column:classification;type:varchar(64)"`
	Recommendations string   `json:"-"                              gorm:"column:recommendations;type:text"`
}

// RecommendationList splits the stored recommendations.
func (e Engagement) RecommendationList() []string {
	if strings.TrimSpace(e.Recommendations) == "" {
		return []string{}
	}
	return strings.Split(e.Recommendations, "\n")
}

// SetRecommendations stores recs newline-joined.
func (e *Engagement) SetRecommendations(recs []string) {
	e.Recommendations = strings.Join(recs, "\n")
}

// PersonalReport is an append-only snapshot of one user's trailing window.
type PersonalReport struct {
	ID                   uint      `json:"id"                          gorm:"primaryKey"`
	RecognitionsReceived int       `json:"recognitions_received"       gorm:"not null"`
	AverageSentiment     *float64  `json:"average_sentiment,omitempty"`
	GeneratedAt          time.Time `json:"generated_at"                gorm:"not null;index:idx_personal_reports_user,priority:2"`
	Narrative            string    `json:"narrative"                   gorm:"type:text;not null"`
	UserID               uint      `json:"user_id"                     gorm:"not null;index:idx_personal_reports_user,priority:1"`
	Engagement           `gorm:"embedded"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for PersonalReport.
func (PersonalReport) TableName() string { return "personal_reports" }

// Team sentiment labels.
const (
	TeamLabelExcellent = "Excellent"
	TeamLabelGood      = "Good"
	TeamLabelRegular   = "Regular"
	TeamLabelCritical  = "Critical"
	TeamLabelNoData    = "No data"
)

// TeamReport is an append-only snapshot of a team's trailing window. Reports
// are cascade-deleted with their team.
type TeamReport struct {
	ID               uint      `json:"id"                          gorm:"primaryKey"`
	SentimentLabel   string    `json:"sentiment_label"             gorm:"type:varchar(16);not null"`
	AverageSentiment *float64  `json:"average_sentiment,omitempty"`
	ActiveMembers    int       `json:"active_members"              gorm:"not null"`
	GeneratedAt      time.Time `json:"generated_at"                gorm:"not null;index:idx_team_reports_team,priority:2"`
	Narrative        string    `json:"narrative"                   gorm:"type:text;not null"`
	TeamID           uint      `json:"team_id"                     gorm:"not null;index:idx_team_reports_team,priority:1"`
	Engagement       `gorm:"embedded"`

	Team Team `json:"-" gorm:"foreignKey:TeamID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TeamReport.
func (TeamReport) TableName() string { return "team_reports" }
