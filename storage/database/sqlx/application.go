package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/stats"
)

const (
	applicationColumns = `a.id, a.application_number, a.user_id, a.course_name, a.preferred_college, a.stream,
	a.board_10th, a.percentage_10th, a.year_10th, a.board_12th, a.percentage_12th, a.year_12th,
	a.status, a.remarks, a.created_at, a.updated_at, a.submitted_at, a.reviewed_at`

	detailQuery = `SELECT ` + applicationColumns + `,
	COALESCE(NULLIF(p.full_name, ''), u.name) AS applicant_name,
	u.email AS applicant_email,
	COALESCE(p.phone, '') AS applicant_phone
	FROM application a
	JOIN "user" u ON u.id = a.user_id
	LEFT JOIN profile p ON p.user_id = a.user_id`

	documentColumns  = `id, application_id, user_id, document_type, file_name, file_path, content_type, size, created_at`
	admitCardColumns = `id, application_id, admit_card_number, generated_at`
)

type (
	applicationRow struct {
		ID                string        `db:"id"`
		ApplicationNumber string        `db:"application_number"`
		UserID            string        `db:"user_id"`
		CourseName        string        `db:"course_name"`
		PreferredCollege  null.String   `db:"preferred_college"`
		Stream            null.String   `db:"stream"`
		Board10th         null.String   `db:"board_10th"`
		Percentage10th    null.Float64  `db:"percentage_10th"`
		Year10th          null.Int      `db:"year_10th"`
		Board12th         null.String   `db:"board_12th"`
		Percentage12th    null.Float64  `db:"percentage_12th"`
		Year12th          null.Int      `db:"year_12th"`
		Status            string        `db:"status"`
		Remarks           null.String   `db:"remarks"`
		CreatedAt         time.Time     `db:"created_at"`
		UpdatedAt         time.Time     `db:"updated_at"`
		SubmittedAt       null.Time     `db:"submitted_at"`
		ReviewedAt        null.Time     `db:"reviewed_at"`
	}

	detailRow struct {
		applicationRow
		ApplicantName  string `db:"applicant_name"`
		ApplicantEmail string `db:"applicant_email"`
		ApplicantPhone string `db:"applicant_phone"`
	}

	documentRow struct {
		ID            string    `db:"id"`
		ApplicationID string    `db:"application_id"`
		UserID        string    `db:"user_id"`
		DocumentType  string    `db:"document_type"`
		FileName      string    `db:"file_name"`
		FilePath      string    `db:"file_path"`
		ContentType   string    `db:"content_type"`
		Size          int64     `db:"size"`
		CreatedAt     time.Time `db:"created_at"`
	}

	admitCardRow struct {
		ID              string    `db:"id"`
		ApplicationID   string    `db:"application_id"`
		AdmitCardNumber string    `db:"admit_card_number"`
		GeneratedAt     time.Time `db:"generated_at"`
	}
)

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func (r applicationRow) application() application.Application {
	return application.Application{
		ID:                r.ID,
		ApplicationNumber: r.ApplicationNumber,
		UserID:            r.UserID,
		CourseName:        r.CourseName,
		PreferredCollege:  r.PreferredCollege.Ptr(),
		Stream:            r.Stream.Ptr(),
		Board10th:         r.Board10th.Ptr(),
		Percentage10th:    r.Percentage10th.Ptr(),
		Year10th:          r.Year10th.Ptr(),
		Board12th:         r.Board12th.Ptr(),
		Percentage12th:    r.Percentage12th.Ptr(),
		Year12th:          r.Year12th.Ptr(),
		Status:            application.Status(r.Status),
		Remarks:           r.Remarks.Ptr(),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
		SubmittedAt:       timePtr(r.SubmittedAt),
		ReviewedAt:        timePtr(r.ReviewedAt),
	}
}

func (r documentRow) document() application.Document {
	return application.Document{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		UserID:        r.UserID,
		DocumentType:  application.DocumentType(r.DocumentType),
		FileName:      r.FileName,
		FilePath:      r.FilePath,
		ContentType:   r.ContentType,
		Size:          r.Size,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (r admitCardRow) admitCard() application.AdmitCard {
	return application.AdmitCard{
		ID:              r.ID,
		ApplicationID:   r.ApplicationID,
		AdmitCardNumber: r.AdmitCardNumber,
		GeneratedAt:     r.GeneratedAt.UTC(),
	}
}

type applicationRepository struct {
	repository
}

var (
	// interface compliance checks
	_ application.Repository = (*applicationRepository)(nil)
	_ stats.Source           = (*applicationRepository)(nil)
)

func NewApplicationRepository(db core.DBExecutor) *applicationRepository {
	return &applicationRepository{repository{db: db}}
}

func (repo applicationRepository) CreateApplication(ctx context.Context, app application.Application, exec ...core.DBExecutor) (application.Application, error) {
	var r applicationRow
	err := repo.getExec(exec).GetContext(ctx, &r,
		`INSERT INTO application AS a (id, application_number, user_id, course_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+applicationColumns,
		uuid.New().String(), app.ApplicationNumber, app.UserID, app.CourseName, string(app.Status),
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return r.application(), nil
}

func (repo applicationRepository) UpdateApplication(ctx context.Context, app application.Application, exec ...core.DBExecutor) (application.Application, error) {
	var r applicationRow
	err := repo.getExec(exec).GetContext(ctx, &r,
		`UPDATE application AS a SET
			course_name = $2,
			preferred_college = $3,
			stream = $4,
			board_10th = $5,
			percentage_10th = $6,
			year_10th = $7,
			board_12th = $8,
			percentage_12th = $9,
			year_12th = $10,
			status = $11,
			submitted_at = $12,
			updated_at = $13
		WHERE a.id = $1
		RETURNING `+applicationColumns,
		app.ID, app.CourseName,
		null.StringFromPtr(app.PreferredCollege), null.StringFromPtr(app.Stream),
		null.StringFromPtr(app.Board10th), null.Float64FromPtr(app.Percentage10th), null.IntFromPtr(app.Year10th),
		null.StringFromPtr(app.Board12th), null.Float64FromPtr(app.Percentage12th), null.IntFromPtr(app.Year12th),
		string(app.Status), null.TimeFromPtr(app.SubmittedAt), app.UpdatedAt,
	)
	if err != nil {
		return application.Application{}, trapNoRowsErr(err, application.ErrNotFound, "updating application")
	}
	return r.application(), nil
}

func (repo applicationRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status application.Status,
	remarks *string,
	reviewedAt time.Time,
	exec ...core.DBExecutor,
) (application.Application, error) {
	var r applicationRow
	err := repo.getExec(exec).GetContext(ctx, &r,
		`UPDATE application AS a SET status = $2, remarks = $3, reviewed_at = $4, updated_at = $4
		WHERE a.id = $1
		RETURNING `+applicationColumns,
		id, string(status), null.StringFromPtr(remarks), reviewedAt,
	)
	if err != nil {
		return application.Application{}, trapNoRowsErr(err, application.ErrNotFound, "updating status")
	}
	return r.application(), nil
}

func (repo applicationRepository) getApplication(ctx context.Context, where string, arg interface{}, exec []core.DBExecutor) (application.Application, error) {
	var r applicationRow
	err := repo.getExec(exec).GetContext(ctx, &r, `SELECT `+applicationColumns+` FROM application a WHERE `+where, arg)
	if err != nil {
		return application.Application{}, trapNoRowsErr(err, application.ErrNotFound, "finding application")
	}
	return r.application(), nil
}

func (repo applicationRepository) GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (application.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return application.Application{}, application.ErrNotFound
	}
	return repo.getApplication(ctx, "a.id = $1", id, exec)
}

func (repo applicationRepository) GetApplicationByNumber(ctx context.Context, number string, exec ...core.DBExecutor) (application.Application, error) {
	return repo.getApplication(ctx, "a.application_number = $1", number, exec)
}

func (repo applicationRepository) GetLatestDraft(ctx context.Context, userID string, exec ...core.DBExecutor) (application.Application, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return application.Application{}, application.ErrNotFound
	}
	return repo.getApplication(ctx,
		"a.user_id = $1 AND a.status = 'draft' ORDER BY a.updated_at DESC LIMIT 1", userID, exec)
}

// withRelations loads the documents & admit cards of details.
func (repo applicationRepository) withRelations(ctx context.Context, rows []detailRow, exec []core.DBExecutor) ([]application.Detail, error) {
	details := make([]application.Detail, 0, len(rows))
	if len(rows) == 0 {
		return details, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	db := repo.getExec(exec)
	var docRows []documentRow
	err := db.SelectContext(ctx, &docRows,
		`SELECT `+documentColumns+` FROM document WHERE application_id = ANY($1::uuid[]) ORDER BY created_at DESC`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	var cardRows []admitCardRow
	err = db.SelectContext(ctx, &cardRows,
		`SELECT `+admitCardColumns+` FROM admit_card WHERE application_id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying admit cards")
	}

	docs := make(map[string][]application.Document)
	for _, d := range docRows {
		docs[d.ApplicationID] = append(docs[d.ApplicationID], d.document())
	}
	cards := make(map[string]application.AdmitCard, len(cardRows))
	for _, c := range cardRows {
		cards[c.ApplicationID] = c.admitCard()
	}

	for _, r := range rows {
		d := application.Detail{
			Application: r.application(),
			Applicant: application.Applicant{
				FullName: r.ApplicantName,
				Email:    r.ApplicantEmail,
				Phone:    r.ApplicantPhone,
			},
			Documents: docs[r.ID],
		}
		if d.Documents == nil {
			d.Documents = []application.Document{}
		}
		if card, ok := cards[r.ID]; ok {
			d.AdmitCard = &card
		}
		details = append(details, d)
	}
	return details, nil
}

func (repo applicationRepository) QueryDetails(ctx context.Context, userID string, exec ...core.DBExecutor) ([]application.Detail, error) {
	query := detailQuery
	args := make([]interface{}, 0, 1)
	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return []application.Detail{}, nil
		}
		query += ` WHERE a.user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY a.created_at DESC, a.application_number DESC`

	var rows []detailRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	return repo.withRelations(ctx, rows, exec)
}

func (repo applicationRepository) GetDetail(ctx context.Context, id string, exec ...core.DBExecutor) (application.Detail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return application.Detail{}, application.ErrNotFound
	}
	var r detailRow
	if err := repo.getExec(exec).GetContext(ctx, &r, detailQuery+` WHERE a.id = $1`, id); err != nil {
		return application.Detail{}, trapNoRowsErr(err, application.ErrNotFound, "finding application")
	}
	details, err := repo.withRelations(ctx, []detailRow{r}, exec)
	if err != nil {
		return application.Detail{}, err
	}
	return details[0], nil
}

func (repo applicationRepository) CreateDocument(ctx context.Context, doc application.Document, exec ...core.DBExecutor) (application.Document, error) {
	var r documentRow
	err := repo.getExec(exec).GetContext(ctx, &r,
		`INSERT INTO document (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+documentColumns,
		uuid.New().String(), doc.ApplicationID, doc.UserID, string(doc.DocumentType),
		doc.FileName, doc.FilePath, doc.ContentType, doc.Size, doc.CreatedAt,
	)
	if err != nil {
		return application.Document{}, errors.Wrap(err, "inserting document")
	}
	return r.document(), nil
}

func (repo applicationRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (application.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return application.Document{}, application.ErrDocumentNotFound
	}
	var r documentRow
	err := repo.getExec(exec).GetContext(ctx, &r, `SELECT `+documentColumns+` FROM document WHERE id = $1`, id)
	if err != nil {
		return application.Document{}, trapNoRowsErr(err, application.ErrDocumentNotFound, "finding document")
	}
	return r.document(), nil
}

func (repo applicationRepository) GetAdmitCard(ctx context.Context, applicationID string, exec ...core.DBExecutor) (application.AdmitCard, error) {
	if _, err := uuid.Parse(applicationID); err != nil {
		return application.AdmitCard{}, application.ErrAdmitCardNotFound
	}
	var r admitCardRow
	err := repo.getExec(exec).GetContext(ctx, &r,
		`SELECT `+admitCardColumns+` FROM admit_card WHERE application_id = $1`, applicationID)
	if err != nil {
		return application.AdmitCard{}, trapNoRowsErr(err, application.ErrAdmitCardNotFound, "finding admit card")
	}
	return r.admitCard(), nil
}

// CreateAdmitCard returns the existing card when the application already has one.
func (repo applicationRepository) CreateAdmitCard(ctx context.Context, card application.AdmitCard, exec ...core.DBExecutor) (application.AdmitCard, error) {
	db := repo.getExec(exec)
	_, err := db.ExecContext(ctx,
		`INSERT INTO admit_card (`+admitCardColumns+`) VALUES ($1, $2, $3, $4)
		ON CONFLICT (application_id) DO NOTHING`,
		uuid.New().String(), card.ApplicationID, card.AdmitCardNumber, card.GeneratedAt,
	)
	if err != nil {
		return application.AdmitCard{}, errors.Wrap(err, "inserting admit card")
	}
	return repo.GetAdmitCard(ctx, card.ApplicationID, db)
}

func (repo applicationRepository) QueryStatusRecords(ctx context.Context) ([]stats.Record, error) {
	var records []stats.Record
	err := repo.db.SelectContext(ctx, &records, `SELECT status, created_at FROM application`)
	return records, errors.Wrap(err, "querying application statuses")
}
