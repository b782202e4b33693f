// Package schedule turns class schedule CSV exports into course records.
package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/yigit/studygraph/internal/app/models"
)

// NoValidRowsMessage is reported to the user when no row could be ingested
const NoValidRowsMessage = "No valid course rows detected. Check column names or data quality."

// Row issues
const (
	IssueMissingCourseName = "Missing course name"
	IssueMissingLocation   = "Missing location"
	IssueMissingTime       = "Missing time slot"
	StatusParsed           = "Parsed successfully"
)

var (
	// ErrNoValidRows is returned when the CSV holds no usable course row
	ErrNoValidRows = errors.New("schedule: no valid course rows")
	// ErrNoHeader is returned for an empty file
	ErrNoHeader = errors.New("schedule: missing header row")
)

var (
	courseNameColumns = []string{"Course Name", "course_name", "Course", "Name", "Title"}
	professorColumns  = []string{"Professor", "professor", "Instructor", "Instructor / Organization"}
	locationColumns   = []string{"Location", "location", "Room"}
	timeColumns       = []string{"Time", "time", "Schedule"}
	dayColumns        = []string{"Day Of Week", "Day", "Days"}
	startColumns      = []string{"Published Start", "Start", "Start Time"}
	endColumns        = []string{"Published End", "End", "End Time"}
	metadataColumns   = []string{"Section", "Type"}
)

// RowStatus reports how one data row was ingested. Rows are numbered from 1.
type RowStatus struct {
	Row    int      `json:"row"`
	OK     bool     `json:"ok"`
	Issues []string `json:"issues"`
}

// Result is the outcome of parsing one CSV file
type Result struct {
	Courses  []models.Course `json:"courses"`
	Statuses []RowStatus     `json:"statuses"`
}

// Parser reads schedule CSVs
type Parser struct {
	// NewID assigns ids to rows without an id column value
	NewID func() string
}

// NewParser creates a Parser that assigns random UUIDs
func NewParser() *Parser {
	return &Parser{NewID: uuid.NewString}
}

// Parse reads a CSV with a header row. Statuses are returned for every row
// even when ErrNoValidRows is returned.
func (p *Parser) Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{Courses: []models.Course{}, Statuses: []RowStatus{}}, ErrNoHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("schedule: failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	result := Result{Courses: []models.Course{}, Statuses: []RowStatus{}}
	seen := make(map[string]struct{})

	for idx := 0; ; idx++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("schedule: failed to read row %d: %w", idx+1, err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.TrimSpace(name)] = record[i]
			}
		}

		course, status := p.normalizeRow(row, idx)
		result.Statuses = append(result.Statuses, status)
		if !status.OK {
			continue
		}
		if _, dup := seen[course.ID]; dup {
			course.ID = p.NewID()
		}
		seen[course.ID] = struct{}{}
		result.Courses = append(result.Courses, course)
	}

	if len(result.Courses) == 0 {
		return result, ErrNoValidRows
	}
	return result, nil
}

func (p *Parser) normalizeRow(row map[string]string, idx int) (models.Course, RowStatus) {
	courseName := firstValue(row, courseNameColumns)
	professor := firstValue(row, professorColumns)
	location := firstValue(row, locationColumns)
	timeSlot := firstValue(row, timeColumns)
	if timeSlot == "" {
		timeSlot = buildTimeSlot(row)
	}

	if metadata := firstValue(row, metadataColumns); metadata != "" {
		if professor != "" {
			professor += " • " + metadata
		} else {
			professor = metadata
		}
	}

	var issues []string
	if courseName == "" {
		issues = append(issues, IssueMissingCourseName)
	}
	if location == "" {
		issues = append(issues, IssueMissingLocation)
	}
	if timeSlot == "" {
		issues = append(issues, IssueMissingTime)
	}

	status := RowStatus{Row: idx + 1, OK: len(issues) == 0, Issues: issues}
	if status.OK {
		status.Issues = []string{StatusParsed}
	}

	id := strings.TrimSpace(row["id"])
	if id == "" {
		id = p.NewID()
	}

	return models.Course{
		ID:         id,
		CourseName: courseName,
		Professor:  professor,
		Location:   location,
		Time:       timeSlot,
	}, status
}

// buildTimeSlot assembles a time slot from separate day and start/end columns
func buildTimeSlot(row map[string]string) string {
	day := firstValue(row, dayColumns)
	start := firstValue(row, startColumns)
	end := firstValue(row, endColumns)

	switch {
	case day == "" && start == "" && end == "":
		return ""
	case day != "" && start != "" && end != "":
		return day + " · " + start + "-" + end
	case day != "" && start != "":
		return day + " · " + start
	case day != "" && end != "":
		return day + " · " + end
	case start != "" || end != "":
		return strings.TrimSpace(strings.Trim(start+"-"+end, "-"))
	default:
		return day
	}
}

// firstValue returns the first non-blank value among the given columns, trimmed
func firstValue(row map[string]string, columns []string) string {
	for _, col := range columns {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return ""
}
