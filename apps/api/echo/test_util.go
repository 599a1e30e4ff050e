package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/commission"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/guideline"
	"github.com/evalia/backend/core/score"
	"github.com/evalia/backend/core/term"
	emailsvc "github.com/evalia/backend/services/email"
	dummydb "github.com/evalia/backend/storage/database/dummy"
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "Evalia",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			Host:               "localhost:0",
			JWTExpirationDelta: 10 * time.Minute,
		},
	}
}

func setupServer(t *testing.T) (*Server, *dummydb.DB, *core.Config) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setupServer() failed: %v", err)
	}

	conf := testConfig()
	dir := dummydb.NewDirectory(db)
	engine := score.NewEngine(dummydb.NewScoreRepository(db))
	evalSvc := evaluation.NewService(db, dummydb.NewEvaluationRepository(db), engine, dir, dir, emailsvc.NewDummyService())

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        testLogger{},
		Validate:      validate,
		Translator:    translator,
		CommissionSvc: commission.NewService(db, dummydb.NewCommissionRepository(db), evalSvc, dir, dir),
		EvaluationSvc: evalSvc,
		GuidelineSvc:  guideline.NewService(db, dummydb.NewGuidelineRepository(db), engine, dir),
		TermSvc:       term.NewService(db, dummydb.NewTermRepository(db)),
	})
	return server, db, conf
}

func getToken(t *testing.T, conf *core.Config, isProfessor, isAdmin bool) string {
	t.Helper()
	claims := NewClaims(conf, "caller-1", "Caller", "caller@uni.test", isProfessor, isAdmin)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
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

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}
