package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tbourn/aura-backend/internal/observability"
)

func TestKindAndCode(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
		code string
	}{
		{ErrTeamNotFound, KindNotFound, "team_not_found"},
		{ErrDailyLimit, KindConflict, "daily_limit"},
		{ErrNotManager, KindForbidden, "not_manager"},
		{ErrBatchTooLarge, KindInvalid, "batch_too_large"},
		{ErrInvalidCredentials, KindUnauthorized, "invalid_credentials"},
		{invalid("name is required"), KindInvalid, "invalid_input"},
		{fmt.Errorf("wrapped: %w", ErrMonthlyLimit), KindConflict, "monthly_limit"},
		{errors.New("disk full"), KindInternal, ""},
		{nil, KindInternal, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, Kind(tc.err), "%v", tc.err)
		assert.Equal(t, tc.code, Code(tc.err), "%v", tc.err)
	}
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "internal", KindInternal.String())
}

func TestDuplicateRecognition(t *testing.T) {
	assert.Equal(t, ErrDailyLimit, duplicateRecognition(errors.New("UNIQUE constraint failed: index 'ux_recognitions_daily'")))
	assert.Equal(t, ErrMonthlyLimit, duplicateRecognition(errors.New("duplicate key value violates unique constraint \"ux_recognitions_monthly\"")))
}

func TestRejected_CountsRule(t *testing.T) {
	c := observability.RuleRejections.WithLabelValues("self_recognition")
	before := testutil.ToFloat64(c)
	assert.Equal(t, ErrSelfRecognition, rejected(ErrSelfRecognition))
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
