package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/KushalGupta-07/Smart-Admission-System/apps/api/echo"
	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/chat"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
	"github.com/KushalGupta-07/Smart-Admission-System/core/stats"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
	"github.com/KushalGupta-07/Smart-Admission-System/services/email"
	"github.com/KushalGupta-07/Smart-Admission-System/services/logger"
	"github.com/KushalGupta-07/Smart-Admission-System/services/objectstore"
	"github.com/KushalGupta-07/Smart-Admission-System/services/ratelimit"
	"github.com/KushalGupta-07/Smart-Admission-System/services/session"
	"github.com/KushalGupta-07/Smart-Admission-System/storage/changefeed"
	"github.com/KushalGupta-07/Smart-Admission-System/storage/database/inmem"
	"github.com/KushalGupta-07/Smart-Admission-System/tests"
)

const testPassword = "Str0ng#Passw0rd"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// notifierMock sends through the real status notifier unless err is set.
type notifierMock struct {
	mu   sync.Mutex
	next application.Notifier
	err  error
}

func (n *notifierMock) NotifyStatus(ctx context.Context, notice application.StatusNotice) (string, error) {
	n.mu.Lock()
	err := n.err
	n.mu.Unlock()
	if err != nil {
		return "", err
	}
	return n.next.NotifyStatus(ctx, notice)
}

func (n *notifierMock) fail(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

type testEnv struct {
	conf     *core.Config
	app      Server
	usrRepo  user.Repository
	appRepo  application.Repository
	profSvc  *profile.Service
	store    *objectstore.MemoryStore
	notifier *notifierMock
	gw       *gatewayMock
	agg      *stats.Aggregator

	student, other, admin user.User
}

func setup(t *testing.T) *testEnv {
	conf := core.NewTestConfig()
	require.NoError(t, core.ParseEmailTemplates(conf))
	validate, translator := testutil.NewValidator(t)
	logger := logsvc.NewTestLogger()
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	feed := changefeed.NewBroker()
	db.OnChange(feed.Publish)
	usrRepo := inmemdb.NewUserRepository(db)
	appRepo := inmemdb.NewApplicationRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, session.NewMemoryStore(), mailSvc, logger, validate, conf)
	profSvc := profile.NewService(inmemdb.NewProfileRepository(db), validate)
	store := objectstore.NewMemoryStore(conf.Storage.Bucket)
	notifier := &notifierMock{next: emailsvc.NewStatusNotifier(mailSvc, nil)}
	appSvc := application.NewService(appRepo, profSvc, usrSvc, store, db, validate, logger)
	reviewSvc := application.NewReviewService(appRepo, usrSvc, notifier, store, db, validate, logger, conf)
	gw := &gatewayMock{}
	chatSvc := chat.NewService(gw, validate, logger, conf)

	agg := stats.NewAggregator(appRepo, feed, logger, nil)
	require.NoError(t, agg.Start(context.Background()))
	t.Cleanup(agg.Stop)

	env := &testEnv{
		conf:     conf,
		usrRepo:  usrRepo,
		appRepo:  appRepo,
		profSvc:  profSvc,
		store:    store,
		notifier: notifier,
		gw:       gw,
		agg:      agg,
	}

	// set up server
	env.app = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Limiter:        ratelimit.NewMemoryLimiter(),
		UserSvc:        usrSvc,
		ProfileSvc:     profSvc,
		AppSvc:         appSvc,
		ReviewSvc:      reviewSvc,
		ChatSvc:        chatSvc,
		Stats:          agg,
	})

	env.student = testutil.CreateUser(t, usrRepo, "Asha Rao", "asha@test.in", testPassword, []string{user.RoleStudent}, true)
	env.other = testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@test.in", testPassword, []string{user.RoleStudent}, true)
	env.admin = testutil.CreateUser(t, usrRepo, "Admin", "admin@test.in", testPassword, []string{user.RoleAdmin}, true)
	return env
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	env.app.ServeHTTP(rec, req)
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	return getToken(t, env.conf, usr)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchallObj() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
