// Package services – ReportService
//
// This file implements the report aggregator. Reports are append-only
// snapshots over a trailing window (30 days by default) that summarize
// recognitions and sentiment into a human-readable narrative. When an
// engagement Scorer is configured, the narrative is extended with the
// predicted engagement, its classification, and recommendations.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/engagement"
	"github.com/tbourn/aura-backend/internal/observability"
	"github.com/tbourn/aura-backend/internal/repo"
)

// DefaultReportWindow is the trailing window used when Window is zero.
const DefaultReportWindow = 30 * 24 * time.Hour

// ReportService generates and lists personal and team reports.
type ReportService struct {
	DB *gorm.DB
	Clock

	// Scorer enables the engagement extension; nil disables it.
	Scorer engagement.Scorer
	Window time.Duration
}

func (s *ReportService) tracer() trace.Tracer { return otel.Tracer("services/ReportService") }

var printer = message.NewPrinter(language.English)

func (s *ReportService) window() domain.Window {
	d := s.Window
	if d <= 0 {
		d = DefaultReportWindow
	}
	return domain.TrailingWindow(s.now(), d)
}

// personalTier maps a personal average to its engagement sentence.
func personalTier(avg float64) string {
	switch {
	case avg >= 8:
		return "Excellent engagement!"
	case avg >= 6:
		return "Good engagement."
	case avg >= 4:
		return "Attention: moderate engagement."
	}
	return "Attention: low engagement."
}

// TeamLabel maps a team average to its sentiment label.
func TeamLabel(avg *float64) string {
	if avg == nil {
		return domain.TeamLabelNoData
	}
	switch v := *avg; {
	case v >= 8:
		return domain.TeamLabelExcellent
	case v >= 6:
		return domain.TeamLabelGood
	case v >= 4:
		return domain.TeamLabelRegular
	}
	return domain.TeamLabelCritical
}

func teamTier(avg float64) string {
	switch {
	case avg >= 7:
		return "Engaged and motivated team!"
	case avg >= 5:
		return "Team with moderate engagement."
	}
	return "Attention: team needs interventions to improve engagement."
}

// PersonalNarrative renders the narrative of a personal report.
func PersonalNarrative(recognitions int64, avg *float64) string {
	var b strings.Builder
	b.WriteString(printer.Sprintf("Recognitions received: %d. ", recognitions))
	if avg == nil {
		b.WriteString("No sentiment recorded in the period.")
		return b.String()
	}
	b.WriteString(printer.Sprintf("Average sentiment: %.2f/10. ", *avg))
	b.WriteString(personalTier(*avg))
	return b.String()
}

// TeamNarrative renders the narrative of a team report.
func TeamNarrative(members int, avg *float64) string {
	head := printer.Sprintf("Team with %d members. ", members)
	if avg == nil {
		return head + "No sentiment recorded in the period."
	}
	return head + printer.Sprintf("Average sentiment: %.2f/10 (%s). ", *avg, TeamLabel(avg)) + teamTier(*avg)
}

// score runs the scorer and appends its outcome to narrative. It returns the
// engagement block to persist and the extended narrative.
func (s *ReportService) score(f engagement.Features, narrative string) (domain.Engagement, string) {
	if s.Scorer == nil {
		return domain.Engagement{}, narrative
	}
	pct := s.Scorer.Predict(f)
	label := s.Scorer.Classify(pct)
	recs := s.Scorer.Recommend(pct, f.AvgSentiment, int(f.Recognitions))
	observability.EngagementPredicted.Observe(pct)

	var b strings.Builder
	b.WriteString(narrative)
	b.WriteString(printer.Sprintf(" Predicted engagement: %.2f%% (%s).", pct, label))
	for _, r := range recs {
		b.WriteString(" ")
		b.WriteString(r)
	}

	e := domain.Engagement{PredictedPct: &pct, Classification: &label}
	e.SetRecommendations(recs)
	return e, b.String()
}

func participation(participants int64, size int) float64 {
	if size == 0 {
		return 0
	}
	return 100 * float64(participants) / float64(size)
}

func avgOrZero(avg *float64) float64 {
	if avg == nil {
		return 0
	}
	return *avg
}

// GeneratePersonal builds and stores a report for userID over the trailing
// window.
func (s *ReportService) GeneratePersonal(ctx context.Context, userID uint) (*domain.PersonalReport, error) {
	ctx, span := s.tracer().Start(ctx, "GeneratePersonal",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	u, err := loadUser(ctx, s.DB, userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, rejected(ErrUserInactive)
	}
	if u.TeamID == nil {
		return nil, rejected(ErrNotInTeam)
	}

	w := s.window()
	self := []uint{userID}
	received, err := repo.CountReceivedBetween(ctx, s.DB, self, w.From, w.To)
	if err != nil {
		return nil, err
	}
	avg, err := repo.AverageScore(ctx, s.DB, self, w.From, w.To)
	if err != nil {
		return nil, err
	}

	narrative := PersonalNarrative(received, avg)
	var eng domain.Engagement
	if s.Scorer != nil {
		f, err := s.personalFeatures(ctx, *u.TeamID, userID, w, received, avg)
		if err != nil {
			return nil, err
		}
		eng, narrative = s.score(f, narrative)
	}

	r := &domain.PersonalReport{
		RecognitionsReceived: int(received),
		AverageSentiment:     avg,
		GeneratedAt:          s.now(),
		Narrative:            narrative,
		UserID:               userID,
		Engagement:           eng,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.CreatePersonalReport(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}

	observability.ReportsGenerated.WithLabelValues("personal").Inc()
	log.Ctx(ctx).Info().
		Uint("user_id", userID).
		Int64("recognitions", received).
		Msg("personal report generated")
	return r, nil
}

func (s *ReportService) personalFeatures(ctx context.Context, teamID, userID uint, w domain.Window, received int64, avg *float64) (engagement.Features, error) {
	ids, err := repo.ActiveMemberIDs(ctx, s.DB, teamID)
	if err != nil {
		return engagement.Features{}, err
	}
	participants, err := repo.CountParticipants(ctx, s.DB, ids, w.From, w.To)
	if err != nil {
		return engagement.Features{}, err
	}
	days, err := repo.DistinctSentimentDays(ctx, s.DB, []uint{userID}, w.From, w.To)
	if err != nil {
		return engagement.Features{}, err
	}
	return engagement.Features{
		TeamSize:         float64(len(ids)),
		Recognitions:     float64(received),
		AvgSentiment:     avgOrZero(avg),
		ParticipationPct: participation(participants, len(ids)),
		ActiveDays:       float64(days),
	}, nil
}

// GenerateTeam builds and stores a report for teamID over the trailing
// window. The team must have at least one active member.
func (s *ReportService) GenerateTeam(ctx context.Context, teamID uint) (*domain.TeamReport, error) {
	ctx, span := s.tracer().Start(ctx, "GenerateTeam",
		trace.WithAttributes(attribute.Int64("team.id", int64(teamID))),
	)
	defer span.End()

	if _, err := loadTeam(ctx, s.DB, teamID); err != nil {
		return nil, err
	}
	ids, err := repo.ActiveMemberIDs(ctx, s.DB, teamID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, rejected(ErrNoActiveMembers)
	}

	w := s.window()
	avg, err := repo.AverageScore(ctx, s.DB, ids, w.From, w.To)
	if err != nil {
		return nil, err
	}

	narrative := TeamNarrative(len(ids), avg)
	var eng domain.Engagement
	if s.Scorer != nil {
		f, err := s.teamFeatures(ctx, ids, w, avg)
		if err != nil {
			return nil, err
		}
		eng, narrative = s.score(f, narrative)
	}

	r := &domain.TeamReport{
		SentimentLabel:   TeamLabel(avg),
		AverageSentiment: avg,
		ActiveMembers:    len(ids),
		GeneratedAt:      s.now(),
		Narrative:        narrative,
		TeamID:           teamID,
		Engagement:       eng,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.CreateTeamReport(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}

	observability.ReportsGenerated.WithLabelValues("team").Inc()
	log.Ctx(ctx).Info().
		Uint("team_id", teamID).
		Str("label", r.SentimentLabel).
		Msg("team report generated")
	return r, nil
}

func (s *ReportService) teamFeatures(ctx context.Context, ids []uint, w domain.Window, avg *float64) (engagement.Features, error) {
	received, err := repo.CountReceivedBetween(ctx, s.DB, ids, w.From, w.To)
	if err != nil {
		return engagement.Features{}, err
	}
	participants, err := repo.CountParticipants(ctx, s.DB, ids, w.From, w.To)
	if err != nil {
		return engagement.Features{}, err
	}
	days, err := repo.DistinctSentimentDays(ctx, s.DB, ids, w.From, w.To)
	if err != nil {
		return engagement.Features{}, err
	}
	return engagement.Features{
		TeamSize:         float64(len(ids)),
		Recognitions:     float64(received),
		AvgSentiment:     avgOrZero(avg),
		ParticipationPct: participation(participants, len(ids)),
		ActiveDays:       float64(days),
	}, nil
}

// GetPersonal returns a personal report owned by requesterID.
func (s *ReportService) GetPersonal(ctx context.Context, id, requesterID uint) (*domain.PersonalReport, error) {
	ctx, span := s.tracer().Start(ctx, "GetPersonal",
		trace.WithAttributes(attribute.Int64("report.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetPersonalReport(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if r.UserID != requesterID {
		return nil, ErrReportForbidden
	}
	return r, nil
}

// GetTeam returns a team report.
func (s *ReportService) GetTeam(ctx context.Context, id uint) (*domain.TeamReport, error) {
	ctx, span := s.tracer().Start(ctx, "GetTeam",
		trace.WithAttributes(attribute.Int64("report.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetTeamReport(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return r, nil
}

// PersonalHistory returns a page of userID's reports, newest first.
func (s *ReportService) PersonalHistory(ctx context.Context, userID uint, p, size int) ([]domain.PersonalReport, int64, error) {
	ctx, span := s.tracer().Start(ctx, "PersonalHistory",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	_, size, offset := page(p, size)
	total, err := repo.CountPersonalReports(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.PersonalReport{}, 0, nil
	}
	items, err := repo.ListPersonalReportsPage(ctx, s.DB, userID, offset, size)
	return items, total, err
}

// TeamHistory returns a page of teamID's reports, newest first.
func (s *ReportService) TeamHistory(ctx context.Context, teamID uint, p, size int) ([]domain.TeamReport, int64, error) {
	ctx, span := s.tracer().Start(ctx, "TeamHistory",
		trace.WithAttributes(attribute.Int64("team.id", int64(teamID))),
	)
	defer span.End()

	ok, err := repo.TeamExists(ctx, s.DB, teamID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrTeamNotFound
	}

	_, size, offset := page(p, size)
	total, err := repo.CountTeamReports(ctx, s.DB, teamID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.TeamReport{}, 0, nil
	}
	items, err := repo.ListTeamReportsPage(ctx, s.DB, teamID, offset, size)
	return items, total, err
}

// TeamReportsStats returns the number of reports stored for teamID and the
// newest GeneratedAt, for conditional GETs.
func (s *ReportService) TeamReportsStats(ctx context.Context, teamID uint) (int64, *time.Time, error) {
	return repo.TeamReportsStats(ctx, s.DB, teamID)
}
