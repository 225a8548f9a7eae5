package echoapi_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/KushalGupta-07/Smart-Admission-System/apps/api/echo"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/services/email"
	"github.com/KushalGupta-07/Smart-Admission-System/tests"
)

func Test_reviewApi_query(t *testing.T) {
	env := setup(t)
	adminToken := env.token(t, env.admin)

	bba := testutil.CreateApplication(t, env.appRepo, env.student.ID, "BBA", application.StatusSubmitted)
	bcom := testutil.CreateApplication(t, env.appRepo, env.other.ID, "B.Com", application.StatusApproved)
	testutil.CreateApplication(t, env.appRepo, env.other.ID, "B.Sc Physics", application.StatusRejected)
	testutil.CreateApplication(t, env.appRepo, env.student.ID, "B.Tech Civil", application.StatusDraft)

	path := func(search, status string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if status != "" {
			v.Add("status", status)
		}
		return "/v1/admin/applications?" + v.Encode()
	}
	numbers := func(t *testing.T, path string) []string {
		req, rec := newAuthRequest(http.MethodGet, path, adminToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var list application.ReviewList
		unmarchallObj(t, rec, &list)
		assert.Equal(t, application.Stats{Total: 4, Submitted: 1, Approved: 1, Rejected: 1}, list.Stats)
		nums := make([]string, 0, len(list.Applications))
		for _, d := range list.Applications {
			nums = append(nums, d.ApplicationNumber)
		}
		return nums
	}

	tests := []httpTest{
		{name: "auth required", path: "/v1/admin/applications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/admin/applications", token: env.token(t, env.student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	runHTTPTests(t, env, tests)

	assert.Len(t, numbers(t, path("", "")), 4)
	assert.Len(t, numbers(t, path("", "all")), 4)
	assert.Equal(t, []string{bcom.ApplicationNumber}, numbers(t, path("", "approved")))
	assert.Equal(t, []string{bba.ApplicationNumber}, numbers(t, path("bba", "")))
	assert.Equal(t, []string{bba.ApplicationNumber}, numbers(t, path("ASHA", "submitted")))
	assert.Equal(t, []string{bcom.ApplicationNumber}, numbers(t, path(bcom.ApplicationNumber, "")))
	assert.Empty(t, numbers(t, path("lol", "")))
}

func Test_reviewApi_transition(t *testing.T) {
	env := setup(t)
	adminToken := env.token(t, env.admin)
	app := testutil.CreateApplication(t, env.appRepo, env.student.ID, "BBA", application.StatusSubmitted)
	draft := testutil.CreateApplication(t, env.appRepo, env.student.ID, "B.Com", application.StatusDraft)
	statusPath := "/v1/admin/applications/" + app.ID + "/status"

	body := func(status application.Status, remarks string) []byte {
		return marchallObj(t, TransitionRequest{Status: status, Remarks: remarks})
	}
	invalid := marchallObj(t, httpErr{Error: application.ErrInvalidTransition.Error()})

	tests := []httpTest{
		{
			name: "admin required", method: http.MethodPut, path: statusPath, token: env.token(t, env.student),
			body: body(application.StatusApproved, ""), wantCode: http.StatusForbidden,
		},
		{
			name: "back to draft", method: http.MethodPut, path: statusPath, token: adminToken,
			body: body(application.StatusDraft, ""), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "unknown status", method: http.MethodPut, path: statusPath, token: adminToken,
			body: body("lost", ""), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "draft application", method: http.MethodPut, path: "/v1/admin/applications/" + draft.ID + "/status", token: adminToken,
			body: body(application.StatusApproved, ""), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "unknown application", method: http.MethodPut, path: "/v1/admin/applications/lol/status", token: adminToken,
			body:     body(application.StatusApproved, ""),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: application.ErrNotFound.Error()}),
		},
	}
	runHTTPTests(t, env, tests)

	t.Run("approves & notifies", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		req, rec := newAuthRequest(http.MethodPut, statusPath, adminToken, body(application.StatusApproved, " Welcome aboard "))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res application.TransitionResult
		unmarchallObj(t, rec, &res)
		assert.Equal(t, application.StatusApproved, res.Application.Status)
		assert.Equal(t, "Welcome aboard", *res.Application.Remarks)
		assert.NotNil(t, res.Application.ReviewedAt)
		require.NotNil(t, res.AdmitCard)
		assert.NotEmpty(t, res.NotificationID)
		assert.Empty(t, res.NotificationError)

		msg, ok := emailsvc.LastSentMessage()
		require.True(t, ok)
		assert.Equal(t, "asha@test.in", msg.To[0].Address)
		assert.Equal(t, "Congratulations! Application Approved", msg.Subject)
		assert.Contains(t, msg.TextContent, res.AdmitCard.AdmitCardNumber)
	})

	t.Run("notification failures do not undo the transition", func(t *testing.T) {
		env.notifier.fail(errors.New("provider down"))
		t.Cleanup(func() { env.notifier.fail(nil) })

		req, rec := newAuthRequest(http.MethodPut, statusPath, adminToken, body(application.StatusRejected, "Seats full"))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res application.TransitionResult
		unmarchallObj(t, rec, &res)
		assert.Equal(t, application.StatusRejected, res.Application.Status)
		assert.Equal(t, "provider down", res.NotificationError)

		req, rec = newAuthRequest(http.MethodGet, "/v1/admin/applications/"+app.ID, adminToken)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var d application.Detail
		unmarchallObj(t, rec, &d)
		assert.Equal(t, application.StatusRejected, d.Status)
		assert.Equal(t, "Seats full", *d.Remarks)
		assert.Equal(t, "Asha Rao", d.Applicant.FullName)
	})
}

func Test_reviewApi_stats(t *testing.T) {
	env := setup(t)
	testutil.CreateApplication(t, env.appRepo, env.student.ID, "BBA", application.StatusUnderReview)
	testutil.CreateApplication(t, env.appRepo, env.student.ID, "B.Com", application.StatusDraft)

	tests := []httpTest{
		{name: "admin required", path: "/v1/admin/stats", token: env.token(t, env.student), wantCode: http.StatusForbidden},
		{
			name: "counts", path: "/v1/admin/stats", token: env.token(t, env.admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, application.Stats{Total: 2, UnderReview: 1}),
		},
	}
	runHTTPTests(t, env, tests)
}

func Test_reviewApi_notify(t *testing.T) {
	env := setup(t)
	adminToken := env.token(t, env.admin)
	notice := application.StatusNotice{
		StudentEmail:      "asha@test.in",
		StudentName:       "Asha Rao",
		ApplicationNumber: "APP-1",
		CourseName:        "BBA",
		Status:            application.StatusUnderReview,
		Remarks:           "Checking marksheets",
	}
	bad := notice
	bad.StudentEmail = "asha"
	bad.Status = "lost"

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/notifications/status", body: marchallObj(t, notice), wantCode: http.StatusUnauthorized},
		{
			name: "admin required", method: http.MethodPost, path: "/v1/notifications/status", token: env.token(t, env.student),
			body: marchallObj(t, notice), wantCode: http.StatusForbidden,
		},
		{
			name: "invalid notice", method: http.MethodPost, path: "/v1/notifications/status", token: adminToken,
			body: marchallObj(t, bad), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"studentEmail": "studentEmail must be a valid email address",
				"status":       "invalid application status",
			}),
		},
	}
	runHTTPTests(t, env, tests)

	// the invalid notice used 1 of the 3 calls of the window
	for i := 0; i < 2; i++ {
		emailsvc.ResetSentMessages()
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/status", adminToken, marchallObj(t, notice))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res NotifyResponse
		unmarchallObj(t, rec, &res)
		assert.NotEmpty(t, res.ID)
		msg, ok := emailsvc.LastSentMessage()
		require.True(t, ok)
		assert.Equal(t, "Application Under Review", msg.Subject)
		assert.Contains(t, msg.TextContent, "Checking marksheets")
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/status", adminToken, marchallObj(t, notice))
	env.serve(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusTooManyRequests,
		wantData: marchallObj(t, httpErr{Error: "too many requests, please try again shortly"}),
	}, rec)

	t.Run("provider errors", func(t *testing.T) {
		env := setup(t)
		env.notifier.fail(errors.New("sendgrid: 401 unauthorized"))
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/status", env.token(t, env.admin), marchallObj(t, notice))
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadGateway,
			wantData: marchallObj(t, httpErr{Error: "sendgrid: 401 unauthorized"}),
		}, rec)
	})
}
