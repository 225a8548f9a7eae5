package application

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// Choices offered by the form. They are not enforced.
var (
	Boards  = []string{"CBSE", "ICSE", "State Board", "IB", "Other"}
	Streams = []string{"Science", "Commerce", "Arts"}
	Courses = []string{
		"B.Tech Computer Science",
		"B.Tech Electronics",
		"B.Tech Mechanical",
		"B.Tech Civil",
		"B.Sc Physics",
		"B.Sc Chemistry",
		"B.Sc Mathematics",
		"B.Com",
		"BBA",
	}
)

// Column widths of the application table.
const (
	maxNameChars   = 255
	maxStreamChars = 50
)

// AcademicInfo is the Academic step. Numbers are kept as typed so that
// drafts can hold anything; they are parsed when stored.
type AcademicInfo struct {
	Board10th      string `json:"board_10th" validate:"maxchars=255"`
	Percentage10th string `json:"percentage_10th" validate:"omitempty,percentage"`
	Year10th       string `json:"year_10th" validate:"omitempty,passyear"`
	Board12th      string `json:"board_12th" validate:"maxchars=255"`
	Percentage12th string `json:"percentage_12th" validate:"omitempty,percentage"`
	Year12th       string `json:"year_12th" validate:"omitempty,passyear"`
	Stream         string `json:"stream" validate:"maxchars=50"`
}

// UnmarshalJSON accepts the percentages and years as JSON strings or numbers.
func (ai *AcademicInfo) UnmarshalJSON(b []byte) error {
	type plain AcademicInfo
	var raw struct {
		plain
		Percentage10th json.RawMessage `json:"percentage_10th"`
		Year10th       json.RawMessage `json:"year_10th"`
		Percentage12th json.RawMessage `json:"percentage_12th"`
		Year12th       json.RawMessage `json:"year_12th"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*ai = AcademicInfo(raw.plain)

	for _, f := range []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"percentage_10th", raw.Percentage10th, &ai.Percentage10th},
		{"year_10th", raw.Year10th, &ai.Year10th},
		{"percentage_12th", raw.Percentage12th, &ai.Percentage12th},
		{"year_12th", raw.Year12th, &ai.Year12th},
	} {
		s, err := numberText(f.raw)
		if err != nil {
			return errors.Wrap(err, f.name)
		}
		*f.dst = s
	}
	return nil
}

// numberText returns a JSON string or number as typed; null is "".
func numberText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("must be a string or a number")
	}
	return n.String(), nil
}

func (ai *AcademicInfo) Clean() {
	ai.Board10th = core.CleanString(ai.Board10th)
	ai.Percentage10th = core.CleanString(ai.Percentage10th)
	ai.Year10th = core.CleanString(ai.Year10th)
	ai.Board12th = core.CleanString(ai.Board12th)
	ai.Percentage12th = core.CleanString(ai.Percentage12th)
	ai.Year12th = core.CleanString(ai.Year12th)
	ai.Stream = core.CleanString(ai.Stream)
}

func (ai *AcademicInfo) Validate(validate *validator.Validate) error {
	ai.Clean()
	return validate.Struct(ai)
}

// apply copies the academic fields onto app. Invalid numbers are dropped, long
// text is cut to the column width.
func (ai AcademicInfo) apply(app *Application) {
	ai.Clean()
	app.Board10th = core.StringPtr(core.TruncateString(ai.Board10th, maxNameChars))
	app.Board12th = core.StringPtr(core.TruncateString(ai.Board12th, maxNameChars))
	app.Stream = core.StringPtr(core.TruncateString(ai.Stream, maxStreamChars))
	app.Percentage10th = percentagePtr(ai.Percentage10th)
	app.Percentage12th = percentagePtr(ai.Percentage12th)
	app.Year10th = passYearPtr(ai.Year10th)
	app.Year12th = passYearPtr(ai.Year12th)
}

// AcademicFromApplication pre-fills the Academic step from a saved application.
func AcademicFromApplication(app Application) AcademicInfo {
	ai := AcademicInfo{
		Board10th: core.StringVal(app.Board10th),
		Board12th: core.StringVal(app.Board12th),
		Stream:    core.StringVal(app.Stream),
	}
	if app.Percentage10th != nil {
		ai.Percentage10th = strconv.FormatFloat(*app.Percentage10th, 'f', -1, 64)
	}
	if app.Percentage12th != nil {
		ai.Percentage12th = strconv.FormatFloat(*app.Percentage12th, 'f', -1, 64)
	}
	if app.Year10th != nil {
		ai.Year10th = strconv.Itoa(*app.Year10th)
	}
	if app.Year12th != nil {
		ai.Year12th = strconv.Itoa(*app.Year12th)
	}
	return ai
}

// CourseInfo is the Course step.
type CourseInfo struct {
	CourseName       string `json:"course_name" validate:"required,maxchars=255"`
	PreferredCollege string `json:"preferred_college" validate:"maxchars=255"`
}

func (ci *CourseInfo) Clean() {
	ci.CourseName = core.CleanString(ci.CourseName)
	ci.PreferredCollege = core.CleanString(ci.PreferredCollege)
}

func (ci *CourseInfo) Validate(validate *validator.Validate) error {
	ci.Clean()
	return validate.Struct(ci)
}

func (ci CourseInfo) apply(app *Application) {
	ci.Clean()
	app.CourseName = ci.courseName()
	app.PreferredCollege = core.StringPtr(core.TruncateString(ci.PreferredCollege, maxNameChars))
}

func (ci CourseInfo) courseName() string {
	return core.TruncateString(core.CleanString(ci.CourseName), maxNameChars)
}

func CourseFromApplication(app Application) CourseInfo {
	return CourseInfo{CourseName: app.CourseName, PreferredCollege: core.StringVal(app.PreferredCollege)}
}

func percentagePtr(s string) *float64 {
	if s == "" {
		return nil
	}
	if p, ok := parsePercentage(s); ok {
		return &p
	}
	return nil
}

func passYearPtr(s string) *int {
	if s == "" {
		return nil
	}
	if y, ok := parsePassYear(s); ok {
		return &y
	}
	return nil
}
