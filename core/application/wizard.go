package application

import (
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
)

type Step int

const (
	StepPersonal Step = iota + 1
	StepAcademic
	StepCourse
	StepDocuments
	StepReview
)

var ErrInvalidStep = errors.New("invalid step")

func (s Step) IsValid() bool { return s >= StepPersonal && s <= StepReview }

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepAcademic:
		return "academic"
	case StepCourse:
		return "course"
	case StepDocuments:
		return "documents"
	case StepReview:
		return "review"
	}
	return "unknown"
}

// Upload is a file selected in the Documents step.
type Upload struct {
	FileHeader
	Type DocumentType
	Body io.Reader
}

// Wizard is one applicant's session of the five step application form.
// It is not safe for concurrent use.
type Wizard struct {
	Step          Step
	ApplicationID string // empty until the first save creates the application

	Personal profile.PersonalInfo
	Academic AcademicInfo
	Course   CourseInfo
	Uploads  []Upload

	validate *validator.Validate
}

func NewWizard(validate *validator.Validate) *Wizard {
	return &Wizard{Step: StepPersonal, validate: validate}
}

// ValidateStep checks the fields of step. Steps without a schema are always valid.
func (w *Wizard) ValidateStep(step Step) error {
	switch step {
	case StepPersonal:
		return w.Personal.Validate(w.validate)
	case StepAcademic:
		return w.Academic.Validate(w.validate)
	case StepCourse:
		return w.Course.Validate(w.validate)
	case StepDocuments:
		for _, u := range w.Uploads {
			if err := ValidateFile(u.FileHeader, u.Type); err != nil {
				return err
			}
		}
		return nil
	case StepReview:
		return nil
	}
	return ErrInvalidStep
}

// Next validates the current step and moves forward. On failure the step is unchanged.
func (w *Wizard) Next() error {
	if w.Step == StepReview {
		return nil
	}
	if err := w.ValidateStep(w.Step); err != nil {
		return err
	}
	w.Step++
	return nil
}

// Back moves one step backwards without validating.
func (w *Wizard) Back() {
	if w.Step > StepPersonal {
		w.Step--
	}
}

// GoTo jumps back to an already visited step.
func (w *Wizard) GoTo(step Step) error {
	if !step.IsValid() || step > w.Step {
		return ErrInvalidStep
	}
	w.Step = step
	return nil
}

// Advance calls Next until step is reached or a step fails validation.
func (w *Wizard) Advance(step Step) error {
	if !step.IsValid() {
		return ErrInvalidStep
	}
	for w.Step < step {
		if err := w.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) CanSubmit() bool {
	return w.Step == StepReview && core.CleanString(w.Course.CourseName) != ""
}

// AddUpload selects a file, replacing any earlier one of the same type.
func (w *Wizard) AddUpload(u Upload) {
	for i := range w.Uploads {
		if w.Uploads[i].Type == u.Type {
			w.Uploads[i] = u
			return
		}
	}
	w.Uploads = append(w.Uploads, u)
}

// load pre-fills the wizard from a saved profile & draft application.
func (w *Wizard) load(p profile.Profile, app *Application) {
	w.Personal = profile.FromProfile(p)
	if app != nil {
		w.ApplicationID = app.ID
		w.Academic = AcademicFromApplication(*app)
		w.Course = CourseFromApplication(*app)
	}
}
