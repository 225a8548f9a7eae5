package echoapi

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
)

// wizardDataField is the multipart field holding the JSON form data. Files are
// sent in fields named after their document type.
const wizardDataField = "data"

// WizardRequest is the form state sent on save-draft and submit.
type WizardRequest struct {
	Personal profile.PersonalInfo     `json:"personal"`
	Academic application.AcademicInfo `json:"academic"`
	Course   application.CourseInfo   `json:"course"`

	uploads []application.Upload
	files   []io.Closer
}

// Bind reads a JSON body, or a multipart form with the JSON in its "data" field.
// Close must be called once the uploads are stored.
func (wr *WizardRequest) Bind(ctx echo.Context) error {
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := ctx.Bind(wr); err != nil {
			return errBadRequestBody
		}
		return nil
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return errBadRequestBody
	}
	if data := form.Value[wizardDataField]; len(data) > 0 && data[0] != "" {
		if err := json.Unmarshal([]byte(data[0]), wr); err != nil {
			return errBadRequestBody
		}
	}

	for _, dt := range application.AllDocumentTypes {
		headers := form.File[string(dt)]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			wr.Close()
			return errors.Wrapf(err, "opening %s", fh.Filename)
		}
		wr.files = append(wr.files, f)
		wr.uploads = append(wr.uploads, application.Upload{
			FileHeader: application.FileHeader{
				Name:        fh.Filename,
				Size:        fh.Size,
				ContentType: fh.Header.Get(echo.HeaderContentType),
			},
			Type: dt,
			Body: f,
		})
	}
	return nil
}

// Apply copies the request onto a resumed wizard.
func (wr *WizardRequest) Apply(w *application.Wizard) {
	w.Personal = wr.Personal
	w.Academic = wr.Academic
	w.Course = wr.Course
	for _, u := range wr.uploads {
		w.AddUpload(u)
	}
}

func (wr *WizardRequest) Close() {
	for _, f := range wr.files {
		_ = f.Close()
	}
	wr.files = nil
}

// WizardState is the saved form state a wizard session resumes from.
type WizardState struct {
	ApplicationID string                   `json:"application_id"`
	Personal      profile.PersonalInfo     `json:"personal"`
	Academic      application.AcademicInfo `json:"academic"`
	Course        application.CourseInfo   `json:"course"`
}

func newWizardState(w *application.Wizard) WizardState {
	return WizardState{
		ApplicationID: w.ApplicationID,
		Personal:      w.Personal,
		Academic:      w.Academic,
		Course:        w.Course,
	}
}
