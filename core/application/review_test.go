package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/tests"
)

func TestReviewService_List(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, err := f.profSvc.Store(ctx, f.student.ID, profile.PersonalInfo{FullName: "Asha R. Rao", Phone: "9876543210"})
	require.NoError(t, err)

	now := time.Now().UTC()
	bba := testutil.CreateApplication(t, f.appRepo, f.student.ID, "BBA", application.StatusSubmitted, now.Add(-3*time.Hour))
	mca := testutil.CreateApplication(t, f.appRepo, f.other.ID, "MCA Integrated", application.StatusApproved, now.Add(-2*time.Hour))
	ba := testutil.CreateApplication(t, f.appRepo, f.other.ID, "BA", application.StatusRejected, now.Add(-1*time.Hour))
	draft := testutil.CreateApplication(t, f.appRepo, f.student.ID, "B.Com", application.StatusDraft, now)

	ids := func(details []application.Detail) []string {
		out := make([]string, 0, len(details))
		for _, d := range details {
			out = append(out, d.ID)
		}
		return out
	}
	wantStats := application.Stats{Total: 4, Submitted: 1, Approved: 1, Rejected: 1}

	tests := []struct {
		name    string
		actor   string
		filter  application.QueryFilter
		want    []string
		wantErr error
	}{
		{name: "student", actor: f.student.ID, wantErr: core.ErrForbidden},
		{name: "unknown user", actor: "nobody", wantErr: core.ErrForbidden},
		{name: "all, newest first", actor: f.admin.ID, want: []string{draft.ID, ba.ID, mca.ID, bba.ID}},
		{name: "status all", actor: f.admin.ID, filter: application.QueryFilter{Status: "all"}, want: []string{draft.ID, ba.ID, mca.ID, bba.ID}},
		{name: "by status", actor: f.admin.ID, filter: application.QueryFilter{Status: "approved"}, want: []string{mca.ID}},
		{name: "by profile name", actor: f.admin.ID, filter: application.QueryFilter{Search: "r. RAO"}, want: []string{draft.ID, bba.ID}},
		{name: "by email", actor: f.admin.ID, filter: application.QueryFilter{Search: "ravi@"}, want: []string{ba.ID, mca.ID}},
		{name: "by course", actor: f.admin.ID, filter: application.QueryFilter{Search: "INTEGRATED"}, want: []string{mca.ID}},
		{name: "by number", actor: f.admin.ID, filter: application.QueryFilter{Search: bba.ApplicationNumber}, want: []string{bba.ID}},
		{
			name:   "search and status",
			actor:  f.admin.ID,
			filter: application.QueryFilter{Search: "asha", Status: "draft"},
			want:   []string{draft.ID},
		},
		{name: "no match", actor: f.admin.ID, filter: application.QueryFilter{Search: "no-such-thing"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := f.review.List(ctx, tt.actor, tt.filter)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list.Applications))
			assert.Equal(t, wantStats, list.Stats)
		})
	}

	list, err := f.review.List(ctx, f.admin.ID, application.QueryFilter{Search: bba.ApplicationNumber})
	require.NoError(t, err)
	require.Len(t, list.Applications, 1)
	assert.Equal(t, application.Applicant{FullName: "Asha R. Rao", Email: "asha@test.in", Phone: "9876543210"}, list.Applications[0].Applicant)
}

func TestReviewService_Transition(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	app := testutil.CreateApplication(t, f.appRepo, f.student.ID, "BBA", application.StatusSubmitted)
	draft := testutil.CreateApplication(t, f.appRepo, f.student.ID, "BCA", application.StatusDraft)

	_, err := f.review.Transition(ctx, f.student.ID, app.ID, application.StatusApproved, "")
	assert.Equal(t, core.ErrForbidden, errors.Cause(err))

	_, err = f.review.Transition(ctx, f.admin.ID, app.ID, application.StatusDraft, "")
	assert.Equal(t, application.ErrInvalidTransition, errors.Cause(err))
	_, err = f.review.Transition(ctx, f.admin.ID, app.ID, application.StatusSubmitted, "")
	assert.Equal(t, application.ErrInvalidTransition, errors.Cause(err))
	_, err = f.review.Transition(ctx, f.admin.ID, draft.ID, application.StatusUnderReview, "")
	assert.Equal(t, application.ErrInvalidTransition, errors.Cause(err))
	_, err = f.review.Transition(ctx, f.admin.ID, "missing", application.StatusUnderReview, "")
	assert.Equal(t, application.ErrNotFound, errors.Cause(err))
	assert.Empty(t, f.notifier.sent())

	// under review with remarks
	res, err := f.review.Transition(ctx, f.admin.ID, app.ID, application.StatusUnderReview, "  checking marksheets ")
	require.NoError(t, err)
	assert.Equal(t, application.StatusUnderReview, res.Application.Status)
	require.NotNil(t, res.Application.Remarks)
	assert.Equal(t, "checking marksheets", *res.Application.Remarks)
	require.NotNil(t, res.Application.ReviewedAt)
	firstReview := *res.Application.ReviewedAt
	assert.Nil(t, res.AdmitCard)
	assert.Equal(t, "msg-"+app.ApplicationNumber, res.NotificationID)
	assert.Empty(t, res.NotificationError)

	// approval clears blank remarks and issues an admit card
	res, err = f.review.Transition(ctx, f.admin.ID, app.ID, application.StatusApproved, "   ")
	require.NoError(t, err)
	assert.Equal(t, application.StatusApproved, res.Application.Status)
	assert.Nil(t, res.Application.Remarks)
	assert.False(t, res.Application.ReviewedAt.Before(firstReview))
	require.NotNil(t, res.AdmitCard)
	assert.Regexp(t, `^ADM`, res.AdmitCard.AdmitCardNumber)
	card := *res.AdmitCard

	// re-approval keeps the card
	res, err = f.review.Transition(ctx, f.admin.ID, app.ID, application.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, card.AdmitCardNumber, res.AdmitCard.AdmitCardNumber)

	d, err := f.svc.AdmitCard(ctx, f.student.ID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, card.AdmitCardNumber, d.AdmitCard.AdmitCardNumber)

	notices := f.notifier.sent()
	require.Len(t, notices, 3)
	assert.Equal(t, application.StatusNotice{
		StudentEmail:      "asha@test.in",
		StudentName:       "Asha Rao",
		ApplicationNumber: app.ApplicationNumber,
		CourseName:        "BBA",
		Status:            application.StatusUnderReview,
		Remarks:           "checking marksheets",
	}, notices[0])
	assert.Equal(t, application.StatusApproved, notices[1].Status)
	assert.Equal(t, card.AdmitCardNumber, notices[1].AdmitCardNumber)

	// rejection after approval: last write wins, the card stays
	f.notifier.err = errors.New("provider down")
	res, err = f.review.Transition(ctx, f.admin.ID, app.ID, application.StatusRejected, "seats full")
	require.NoError(t, err) // notification failures do not roll back
	assert.Equal(t, application.StatusRejected, res.Application.Status)
	assert.Equal(t, "provider down", res.NotificationError)
	assert.Empty(t, res.NotificationID)
	_, err = f.svc.AdmitCard(ctx, f.student.ID, app.ID)
	assert.Equal(t, application.ErrAdmitCardNotFound, errors.Cause(err))
}

func TestReviewService_Notify(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	notice := application.StatusNotice{
		StudentEmail:      " Asha@Test.in ",
		StudentName:       "Asha",
		ApplicationNumber: "APP1",
		CourseName:        "BBA",
		Status:            application.StatusApproved,
	}

	_, err := f.review.Notify(ctx, f.student.ID, notice)
	assert.Equal(t, core.ErrForbidden, errors.Cause(err))

	id, err := f.review.Notify(ctx, f.admin.ID, notice)
	require.NoError(t, err)
	assert.Equal(t, "msg-APP1", id)
	assert.Equal(t, "asha@test.in", f.notifier.sent()[0].StudentEmail)

	f.notifier.err = errors.New("provider down")
	_, err = f.review.Notify(ctx, f.admin.ID, notice)
	nErr, ok := errors.Cause(err).(*application.NotificationError)
	require.True(t, ok)
	assert.Equal(t, "provider down", nErr.Err.Error())
	f.notifier.err = nil

	bad := notice
	bad.Status = "lost"
	bad.CourseName = ""
	_, err = f.review.Notify(ctx, f.admin.ID, bad)
	assert.Equal(t, map[string]string{
		"courseName": "this field is required",
		"status":     "invalid application status",
	}, core.TranslateErrors(err, f.translator))
}

func TestReviewService_DocumentURL(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	w, err := f.svc.Resume(ctx, f.student.ID)
	require.NoError(t, err)
	w.Course.CourseName = "BBA"
	w.AddUpload(pdf(application.DocMarksheet12th, "12th.pdf"))
	res, err := f.svc.SaveDraft(ctx, f.student.ID, w)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	docID := res.Documents[0].ID

	tests := []struct {
		name    string
		actor   string
		docID   string
		wantErr error
	}{
		{name: "owner", actor: f.student.ID, docID: docID},
		{name: "admin", actor: f.admin.ID, docID: docID},
		{name: "other student", actor: f.other.ID, docID: docID, wantErr: application.ErrDocumentNotFound},
		{name: "missing", actor: f.admin.ID, docID: "missing", wantErr: application.ErrDocumentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := f.review.DocumentURL(ctx, tt.actor, tt.docID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, url, "memory://documents/")
		})
	}
}
