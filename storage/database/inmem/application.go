package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/stats"
)

type applicationRepository struct {
	db *DB
}

var (
	// interface compliance checks
	_ application.Repository = (*applicationRepository)(nil)
	_ stats.Source           = (*applicationRepository)(nil)
)

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db}
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application, exec ...core.DBExecutor) (application.Application, error) {
	repo.db.mu.Lock()
	app.ID = uuid.New().String()
	repo.db.applications[app.ID] = &app
	repo.db.mu.Unlock()

	repo.db.notify(stats.ApplicationsTable, "INSERT", app.ID)
	return app, nil
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application, exec ...core.DBExecutor) (application.Application, error) {
	repo.db.mu.Lock()
	orig, ok := repo.db.applications[app.ID]
	if !ok {
		repo.db.mu.Unlock()
		return application.Application{}, application.ErrNotFound
	}
	orig.CourseName = app.CourseName
	orig.PreferredCollege = app.PreferredCollege
	orig.Stream = app.Stream
	orig.Board10th = app.Board10th
	orig.Percentage10th = app.Percentage10th
	orig.Year10th = app.Year10th
	orig.Board12th = app.Board12th
	orig.Percentage12th = app.Percentage12th
	orig.Year12th = app.Year12th
	orig.Status = app.Status
	orig.SubmittedAt = app.SubmittedAt
	orig.UpdatedAt = app.UpdatedAt
	res := *orig
	repo.db.mu.Unlock()

	repo.db.notify(stats.ApplicationsTable, "UPDATE", app.ID)
	return res, nil
}

func (repo *applicationRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status application.Status,
	remarks *string,
	reviewedAt time.Time,
	exec ...core.DBExecutor,
) (application.Application, error) {
	repo.db.mu.Lock()
	orig, ok := repo.db.applications[id]
	if !ok {
		repo.db.mu.Unlock()
		return application.Application{}, application.ErrNotFound
	}
	orig.Status = status
	orig.Remarks = remarks
	orig.ReviewedAt = &reviewedAt
	orig.UpdatedAt = reviewedAt
	res := *orig
	repo.db.mu.Unlock()

	repo.db.notify(stats.ApplicationsTable, "UPDATE", id)
	return res, nil
}

func (repo *applicationRepository) GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (application.Application, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) GetApplicationByNumber(ctx context.Context, number string, exec ...core.DBExecutor) (application.Application, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, app := range repo.db.applications {
		if app.ApplicationNumber == number {
			return *app, nil
		}
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) GetLatestDraft(ctx context.Context, userID string, exec ...core.DBExecutor) (application.Application, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest *application.Application
	for _, app := range repo.db.applications {
		if app.UserID != userID || app.Status != application.StatusDraft {
			continue
		}
		if latest == nil || app.UpdatedAt.After(latest.UpdatedAt) {
			latest = app
		}
	}
	if latest == nil {
		return application.Application{}, application.ErrNotFound
	}
	return *latest, nil
}

// detail must be called with db.mu held.
func (repo *applicationRepository) detail(app application.Application) application.Detail {
	d := application.Detail{Application: app, Documents: []application.Document{}}
	if usr, ok := repo.db.users[app.UserID]; ok {
		d.Applicant.FullName = usr.Name
		d.Applicant.Email = usr.Email
	}
	if p, ok := repo.db.profiles[app.UserID]; ok {
		if p.FullName != "" {
			d.Applicant.FullName = p.FullName
		}
		d.Applicant.Phone = p.Phone
	}
	for _, doc := range repo.db.documents {
		if doc.ApplicationID == app.ID {
			d.Documents = append(d.Documents, *doc)
		}
	}
	sort.Slice(d.Documents, func(i, j int) bool {
		return d.Documents[i].CreatedAt.After(d.Documents[j].CreatedAt)
	})
	if card, ok := repo.db.admitCards[app.ID]; ok {
		c := *card
		d.AdmitCard = &c
	}
	return d
}

func (repo *applicationRepository) QueryDetails(ctx context.Context, userID string, exec ...core.DBExecutor) ([]application.Detail, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	details := make([]application.Detail, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		if userID == "" || app.UserID == userID {
			details = append(details, repo.detail(*app))
		}
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].CreatedAt.Equal(details[j].CreatedAt) {
			return details[i].ApplicationNumber > details[j].ApplicationNumber
		}
		return details[i].CreatedAt.After(details[j].CreatedAt)
	})
	return details, nil
}

func (repo *applicationRepository) GetDetail(ctx context.Context, id string, exec ...core.DBExecutor) (application.Detail, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	app, ok := repo.db.applications[id]
	if !ok {
		return application.Detail{}, application.ErrNotFound
	}
	return repo.detail(*app), nil
}

func (repo *applicationRepository) CreateDocument(ctx context.Context, doc application.Document, exec ...core.DBExecutor) (application.Document, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	doc.ID = uuid.New().String()
	repo.db.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *applicationRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (application.Document, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if doc, ok := repo.db.documents[id]; ok {
		return *doc, nil
	}
	return application.Document{}, application.ErrDocumentNotFound
}

func (repo *applicationRepository) GetAdmitCard(ctx context.Context, applicationID string, exec ...core.DBExecutor) (application.AdmitCard, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if card, ok := repo.db.admitCards[applicationID]; ok {
		return *card, nil
	}
	return application.AdmitCard{}, application.ErrAdmitCardNotFound
}

func (repo *applicationRepository) CreateAdmitCard(ctx context.Context, card application.AdmitCard, exec ...core.DBExecutor) (application.AdmitCard, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if orig, ok := repo.db.admitCards[card.ApplicationID]; ok {
		return *orig, nil
	}
	card.ID = uuid.New().String()
	repo.db.admitCards[card.ApplicationID] = &card
	return card, nil
}

func (repo *applicationRepository) QueryStatusRecords(ctx context.Context) ([]stats.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]stats.Record, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		records = append(records, stats.Record{Status: string(app.Status), CreatedAt: app.CreatedAt})
	}
	return records, nil
}
