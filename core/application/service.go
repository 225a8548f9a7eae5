package application

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrAdmitCardNotFound = errors.New("admit card not found")
	ErrNotEditable       = errors.New("only draft applications can be changed")
	ErrSubmitNotAllowed  = errors.New("complete every step and select a course before submitting")
	ErrInvalidTransition = errors.New("invalid status transition")

	errNoApplication = errors.New("Select a course and save the application before uploading documents.")
)

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		// UpdateApplication saves the applicant editable fields, status & submitted_at.
		UpdateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (Application, error)
		GetApplicationByNumber(ctx context.Context, number string, exec ...core.DBExecutor) (Application, error)
		GetLatestDraft(ctx context.Context, userID string, exec ...core.DBExecutor) (Application, error)
		// QueryDetails returns the applications of userID (all if empty), newest first,
		// joined with their applicant, documents & admit card.
		QueryDetails(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Detail, error)
		GetDetail(ctx context.Context, id string, exec ...core.DBExecutor) (Detail, error)
		UpdateStatus(ctx context.Context, id string, status Status, remarks *string, reviewedAt time.Time, exec ...core.DBExecutor) (Application, error)

		CreateDocument(ctx context.Context, doc Document, exec ...core.DBExecutor) (Document, error)
		GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (Document, error)

		GetAdmitCard(ctx context.Context, applicationID string, exec ...core.DBExecutor) (AdmitCard, error)
		CreateAdmitCard(ctx context.Context, card AdmitCard, exec ...core.DBExecutor) (AdmitCard, error)
	}

	// Authorizer answers role questions about the acting user.
	Authorizer interface {
		HasRole(ctx context.Context, userID, role string) (bool, error)
	}
)

// UploadError reports a document that could not be stored.
type UploadError struct {
	DocumentType DocumentType `json:"document_type"`
	FileName     string       `json:"file_name"`
	Error        string       `json:"error"`
}

// SaveResult is the outcome of a save-draft or submit. Upload failures never fail the save.
type SaveResult struct {
	Application  *Application  `json:"application"`
	Documents    []Document    `json:"documents"`
	UploadErrors []UploadError `json:"upload_errors"`
}

// Service serves the applicant side of the application lifecycle.
type Service struct {
	repo     Repository
	profiles *profile.Service
	authz    Authorizer
	store    core.ObjectStore
	tx       core.Transactor
	validate *validator.Validate
	logger   core.Logger
}

func NewService(
	repo Repository,
	profiles *profile.Service,
	authz Authorizer,
	store core.ObjectStore,
	tx core.Transactor,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		authz:    authz,
		store:    store,
		tx:       tx,
		validate: validate,
		logger:   logger,
	}
}

// Resume starts a wizard session for userID, continuing its latest draft if any.
func (svc *Service) Resume(ctx context.Context, userID string) (*Wizard, error) {
	p, err := svc.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	w := NewWizard(svc.validate)
	draft, err := svc.repo.GetLatestDraft(ctx, userID)
	switch {
	case err == nil:
		w.load(p, &draft)
	case errors.Cause(err) == ErrNotFound:
		w.load(p, nil)
	default:
		return nil, errors.Wrap(err, "getting latest draft")
	}
	return w, nil
}

// SaveDraft stores the wizard as a draft. Validation is not required.
func (svc *Service) SaveDraft(ctx context.Context, userID string, w *Wizard) (SaveResult, error) {
	return svc.save(ctx, userID, w, StatusDraft)
}

// Submit stores the wizard and submits the application.
func (svc *Service) Submit(ctx context.Context, userID string, w *Wizard) (SaveResult, error) {
	if !w.CanSubmit() {
		return SaveResult{}, ErrSubmitNotAllowed
	}
	return svc.save(ctx, userID, w, StatusSubmitted)
}

func (svc *Service) save(ctx context.Context, userID string, w *Wizard, status Status) (SaveResult, error) {
	var (
		res SaveResult
		app *Application
	)
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.profiles.Store(ctx, userID, w.Personal, exec); err != nil {
			return err
		}
		found, err := svc.findOrCreate(ctx, userID, w, exec)
		if err != nil || found == nil {
			return err
		}

		w.Academic.apply(found)
		w.Course.apply(found)
		now := core.NowFunc().UTC()
		found.UpdatedAt = now
		found.Status = status
		if status == StatusSubmitted && found.SubmittedAt == nil {
			found.SubmittedAt = &now
		}
		updated, err := svc.repo.UpdateApplication(ctx, *found, exec)
		if err != nil {
			return errors.Wrap(err, "updating application")
		}
		app = &updated
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}

	res.Application = app
	if app != nil {
		w.ApplicationID = app.ID
	}
	res.Documents, res.UploadErrors = svc.upload(ctx, userID, app, w.Uploads)
	return res, nil
}

// findOrCreate returns the application of this wizard session, creating it on
// the first save with a course. It returns nil when there is nothing to save yet.
func (svc *Service) findOrCreate(ctx context.Context, userID string, w *Wizard, exec core.DBExecutor) (*Application, error) {
	if w.ApplicationID != "" {
		app, err := svc.repo.GetApplication(ctx, w.ApplicationID, exec)
		if err != nil {
			return nil, errors.Wrap(err, "getting application")
		}
		if app.UserID != userID {
			return nil, ErrNotFound
		}
		if !app.IsEditable() {
			return nil, ErrNotEditable
		}
		return &app, nil
	}

	if core.CleanString(w.Course.CourseName) == "" {
		return nil, nil
	}
	now := core.NowFunc().UTC()
	app, err := svc.repo.CreateApplication(ctx, Application{
		ApplicationNumber: NewApplicationNumber(),
		UserID:            userID,
		CourseName:        w.Course.courseName(),
		Status:            StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, exec)
	if err != nil {
		return nil, errors.Wrap(err, "creating application")
	}
	return &app, nil
}

// upload stores each file on its own; a failed file does not stop the others.
func (svc *Service) upload(ctx context.Context, userID string, app *Application, uploads []Upload) ([]Document, []UploadError) {
	docs := make([]Document, 0, len(uploads))
	var failed []UploadError
	fail := func(u Upload, err error) {
		failed = append(failed, UploadError{DocumentType: u.Type, FileName: u.Name, Error: uploadMessage(err)})
	}

	for _, u := range uploads {
		if app == nil {
			fail(u, errNoApplication)
			continue
		}
		if err := ValidateFile(u.FileHeader, u.Type); err != nil {
			fail(u, err)
			continue
		}

		path := DocumentPath(userID, app.ID, u.Type, core.NowFunc().UnixMilli())
		if err := svc.store.Upload(ctx, path, u.ContentType, u.Body, u.Size); err != nil {
			svc.logger.Error("uploading document", err, path)
			fail(u, errors.New("Upload failed. Please try again."))
			continue
		}
		doc, err := svc.repo.CreateDocument(ctx, Document{
			ApplicationID: app.ID,
			UserID:        userID,
			DocumentType:  u.Type,
			FileName:      SanitizeFileName(u.Name),
			FilePath:      path,
			ContentType:   u.ContentType,
			Size:          u.Size,
			CreatedAt:     core.NowFunc().UTC(),
		})
		if err != nil {
			svc.logger.Error("saving document", err, path)
			fail(u, errors.New("Upload failed. Please try again."))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed
}

// ListOwn returns the applications of userID, newest first.
func (svc *Service) ListOwn(ctx context.Context, userID string) ([]Detail, error) {
	details, err := svc.repo.QueryDetails(ctx, userID)
	return details, errors.Wrap(err, "querying applications")
}

// Get returns an application of userID.
func (svc *Service) Get(ctx context.Context, userID, id string) (Detail, error) {
	d, err := svc.repo.GetDetail(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if d.UserID != userID {
		return Detail{}, ErrNotFound
	}
	return d, nil
}

// Results returns the decided applications of userID, latest decision first.
func (svc *Service) Results(ctx context.Context, userID string) ([]Detail, error) {
	details, err := svc.ListOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	decided := make([]Detail, 0, len(details))
	for _, d := range details {
		if d.Status.IsDecided() {
			decided = append(decided, d)
		}
	}
	sort.SliceStable(decided, func(i, j int) bool {
		ri, rj := decided[i].ReviewedAt, decided[j].ReviewedAt
		if ri == nil || rj == nil {
			return ri != nil
		}
		return ri.After(*rj)
	})
	return decided, nil
}

// Lookup finds an application by number. Applicants only see their own.
func (svc *Service) Lookup(ctx context.Context, userID, number string) (Application, error) {
	number = core.CleanString(number)
	if number == "" {
		return Application{}, ErrNotFound
	}
	app, err := svc.repo.GetApplicationByNumber(ctx, number)
	if err != nil {
		return Application{}, err
	}
	if app.UserID == userID {
		return app, nil
	}
	isAdmin, err := svc.authz.HasRole(ctx, userID, user.RoleAdmin)
	if err != nil {
		return Application{}, errors.Wrap(err, "checking role")
	}
	if !isAdmin {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// AdmitCard returns the admit card of an approved application of userID.
func (svc *Service) AdmitCard(ctx context.Context, userID, applicationID string) (Detail, error) {
	d, err := svc.Get(ctx, userID, applicationID)
	if err != nil {
		return Detail{}, err
	}
	if d.Status != StatusApproved || d.AdmitCard == nil {
		return Detail{}, ErrAdmitCardNotFound
	}
	return d, nil
}

// uploadMessage is the text shown to the applicant for a failed upload.
func uploadMessage(err error) string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		return vErr.Fields[0].Error
	}
	return err.Error()
}
