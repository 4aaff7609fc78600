package services

import (
	"strings"
	"time"

	"github.com/tbourn/aura-backend/internal/utils"
)

// Clock supplies "now" in the location used for calendar boundaries.
// The zero value uses time.Now in time.Local.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// validate runs struct validation and wraps failures as ErrInvalidInput.
func validate(in any) error {
	if err := utils.ValidateStruct(in); err != nil {
		return invalid(err.Error())
	}
	return nil
}

// page normalizes pagination parameters and returns the row offset.
func page(p, size int) (int, int, int) {
	if p < 1 {
		p = 1
	}
	if size <= 0 {
		size = 10
	}
	return p, size, utils.Offset(p, size)
}

// trimPtr trims *s and returns nil when the result is empty.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
