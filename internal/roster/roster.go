// Package roster reads and writes the student spreadsheet.
package roster

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/presenca/attendance-notify/internal/model"
)

var (
	ErrSourceMissing = errors.New("roster file not found")
	ErrMissingColumn = errors.New("roster is missing a required column")
	ErrEmptyRoster   = errors.New("roster has no data rows")
)

// Column headers expected on the first row of the first sheet.
// student_name and class are required; the guardian columns may be
// absent entirely.
const (
	colStudent  = "student_name"
	colClass    = "class"
	colGuardian = "guardian_name"
	colPhone    = "guardian_phone"
)

// Store owns the roster file on disk. Reads are pure; Replace
// overwrites the backing file wholesale.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Roster is one parsed spreadsheet: classes in first-seen order,
// students in source row order within each class.
type Roster struct {
	classes []string
	byClass map[string][]model.Student
}

func (r *Roster) Classes() []string {
	return r.classes
}

func (r *Roster) StudentsIn(class string) []model.Student {
	return r.byClass[class]
}

// Load parses the backing file into grouped rows.
func (s *Store) Load() (*Roster, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, s.path)
		}
		return nil, fmt.Errorf("open roster %s: %w", s.path, err)
	}
	defer f.Close()

	return parse(f)
}

// Replace validates the uploaded spreadsheet and overwrites the
// backing file. No merge: the new sheet is the roster afterwards.
func (s *Store) Replace(data []byte) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse uploaded roster: %w", err)
	}
	defer f.Close()

	if _, err := parse(f); err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write roster %s: %w", s.path, err)
	}
	return nil
}

// Export re-serializes the current roster to a fresh spreadsheet.
func (s *Store) Export() ([]byte, error) {
	r, err := s.Load()
	if err != nil {
		return nil, err
	}
	return Write(r)
}

// Write serializes a roster with the canonical header row.
func Write(r *Roster) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{colStudent, colClass, colGuardian, colPhone}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, class := range r.Classes() {
		for _, st := range r.StudentsIn(class) {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			vals := []any{st.Name, st.Class, st.GuardianName, st.GuardianPhone}
			if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
				return nil, err
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromStudents builds an in-memory roster, preserving input order.
func FromStudents(students []model.Student) *Roster {
	r := &Roster{byClass: make(map[string][]model.Student)}
	for _, st := range students {
		if _, seen := r.byClass[st.Class]; !seen {
			r.classes = append(r.classes, st.Class)
		}
		r.byClass[st.Class] = append(r.byClass[st.Class], st)
	}
	return r
}

func parse(f *excelize.File) (*Roster, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read roster rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}

	idx := headerIndex(rows[0])
	studentCol, ok := idx[colStudent]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colStudent)
	}
	classCol, ok := idx[colClass]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colClass)
	}
	guardianCol, hasGuardian := idx[colGuardian]
	phoneCol, hasPhone := idx[colPhone]

	var students []model.Student
	for _, row := range rows[1:] {
		name := strings.TrimSpace(cellAt(row, studentCol))
		if name == "" {
			continue
		}
		st := model.Student{
			Name:  name,
			Class: strings.TrimSpace(cellAt(row, classCol)),
		}
		if hasGuardian {
			st.GuardianName = strings.TrimSpace(cellAt(row, guardianCol))
		}
		if hasPhone {
			st.GuardianPhone = strings.TrimSpace(cellAt(row, phoneCol))
		}
		students = append(students, st)
	}
	if len(students) == 0 {
		return nil, ErrEmptyRoster
	}

	return FromStudents(students), nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
