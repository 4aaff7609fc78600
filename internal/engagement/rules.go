package engagement

// Engagement labels.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelModerate  = "Moderate"
	LabelLow       = "Low"
	LabelCritical  = "Critical"
)

// Recommendation messages.
const (
	RecTeamBuilding  = "Consider running team building activities."
	RecOneOnOnes     = "Team sentiment is low: schedule one-on-one conversations."
	RecEncourage     = "Encourage more recognitions between members."
	RecKeepItUp      = "Excellent work! Keep this level up."
	RecSharePractice = "Good engagement: consider sharing your good practices."
)

// Classify maps an engagement percentage to a label using the thresholds
// 90, 75, 60 and 45.
func Classify(pct float64) string {
	switch {
	case pct >= 90:
		return LabelExcellent
	case pct >= 75:
		return LabelGood
	case pct >= 60:
		return LabelModerate
	case pct >= 45:
		return LabelLow
	default:
		return LabelCritical
	}
}

// Recommend applies independent rules; every matching rule contributes one
// message, in a fixed order.
func Recommend(pct, avgSentiment float64, recognitions int) []string {
	out := make([]string, 0, 3)
	if pct < 60 {
		out = append(out, RecTeamBuilding)
	}
	if avgSentiment < 6.0 {
		out = append(out, RecOneOnOnes)
	}
	if recognitions < 10 {
		out = append(out, RecEncourage)
	}
	if pct >= 90 {
		out = append(out, RecKeepItUp)
	}
	if pct >= 75 && pct < 90 {
		out = append(out, RecSharePractice)
	}
	return out
}

// Static is a Scorer returning a fixed prediction. Classification and
// recommendations use the same rules as Model.
type Static struct {
	Pct float64
	// Calls records every Predict input, in order.
	Calls []Features
}

var _ Scorer = (*Static)(nil)

func (s *Static) Predict(f Features) float64 {
	s.Calls = append(s.Calls, f)
	return s.Pct
}

func (s *Static) Classify(pct float64) string { return Classify(pct) }

func (s *Static) Recommend(pct, avgSentiment float64, recognitions int) []string {
	return Recommend(pct, avgSentiment, recognitions)
}
