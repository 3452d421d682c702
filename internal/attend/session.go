// Package attend holds the per-class, per-date attendance marks.
package attend

import (
	"errors"
	"fmt"
	"time"

	"github.com/presenca/attendance-notify/internal/model"
)

var (
	ErrWeekend     = errors.New("attendance cannot be recorded on a weekend")
	ErrInvalidDate = errors.New("invalid date")
)

// DateLayout is the calendar-date string form used everywhere: session
// input, audit records, export filenames.
const DateLayout = "2006-01-02"

// Session tracks present/absent marks for one class on one date.
// Students start out present; marks are last-write-wins.
type Session struct {
	Class string
	Date  string

	students []model.Student
	marks    map[string]bool
}

// Start begins a fresh session. The date must parse and must not fall
// on a Saturday or Sunday.
func Start(class, date string, students []model.Student) (*Session, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil, fmt.Errorf("%w: %s is a %s", ErrWeekend, date, wd)
	}

	return &Session{
		Class:    class,
		Date:     date,
		students: students,
		marks:    make(map[string]bool, len(students)),
	}, nil
}

// Mark sets a student's presence. Idempotent; the last write wins.
// Names not on the roster are kept but never surface in Absentees.
func (s *Session) Mark(studentName string, present bool) {
	s.marks[studentName] = present
}

// Absentees returns the students explicitly marked absent, in roster
// order.
func (s *Session) Absentees() []model.Student {
	var out []model.Student
	for _, st := range s.students {
		if present, marked := s.marks[st.Name]; marked && !present {
			out = append(out, st)
		}
	}
	return out
}
