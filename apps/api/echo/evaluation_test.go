package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia/backend/core/commission"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/guideline"
	"github.com/evalia/backend/core/reference"
)

func TestEvaluationAPI(t *testing.T) {
	server, db, conf := setupServer(t)

	adminToken := getToken(t, conf, false, true)
	profToken := getToken(t, conf, true, false)
	studentToken := getToken(t, conf, false, false)

	prof := db.AddProfessor(reference.Professor{Name: "Dr. Kim", Email: "kim@uni.test"})
	theme := db.AddTheme(reference.Theme{Name: "Distributed Systems"})
	s1 := db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})
	s2 := db.AddStudent(reference.Student{Name: "Linus", Code: "S002"})

	// a commission with a guideline and a one-student roster
	req, rec := newAuthRequest(http.MethodPost, "/v1/guidelines", adminToken, marshallObj(t, guideline.NewGuideline{
		Name:    "Oral defense",
		ThemeID: theme.ID,
		Criteria: []guideline.NewCriterion{
			{Description: "Clarity", MaxScore: 10},
			{Description: "Depth", MaxScore: 10},
		},
	}))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var gl guideline.Guideline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gl))

	req, rec = newAuthRequest(http.MethodPost, "/v1/commissions", adminToken, marshallObj(t, commission.NewCommission{
		Name:        "Finals A",
		ProfessorID: prof.ID,
		ThemeID:     theme.ID,
		Date:        "2026-02-10",
		Time:        "09:00",
		EvalGroup:   "2026_1",
		GuidelineID: gl.ID,
		StudentIDs:  []string{s1.ID},
	}))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var com commission.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &com))
	evalID := com.Roster[0].EvaluationID

	clarityID := gl.Criteria[0].ID
	for _, c := range gl.Criteria {
		if c.Description == "Clarity" {
			clarityID = c.ID
		}
	}

	tests := []httpTest{
		{name: "create: auth required", method: http.MethodPost, path: "/v1/evaluations",
			body: marshallObj(t, evaluation.NewEvaluation{StudentID: s2.ID, CommissionID: com.ID}), wantCode: http.StatusUnauthorized},
		{name: "create: professor or admin required", method: http.MethodPost, path: "/v1/evaluations",
			body: marshallObj(t, evaluation.NewEvaluation{StudentID: s2.ID, CommissionID: com.ID}),
			token: studentToken, wantCode: http.StatusForbidden},
		{name: "create: ok", method: http.MethodPost, path: "/v1/evaluations",
			body:  marshallObj(t, evaluation.NewEvaluation{StudentID: s2.ID, CommissionID: com.ID}),
			token: profToken, wantCode: http.StatusCreated},
		{name: "create: idempotent while pending", method: http.MethodPost, path: "/v1/evaluations",
			body:  marshallObj(t, evaluation.NewEvaluation{StudentID: s2.ID, CommissionID: com.ID}),
			token: profToken, wantCode: http.StatusCreated},
		{name: "create: unknown student", method: http.MethodPost, path: "/v1/evaluations",
			body:  marshallObj(t, evaluation.NewEvaluation{StudentID: "ghost", CommissionID: com.ID}),
			token: profToken, wantCode: http.StatusBadRequest},
		{name: "update: score above maximum", method: http.MethodPut, path: "/v1/evaluations/" + evalID,
			body:  []byte(fmt.Sprintf(`{"scores":[{"criterion_id":%q,"score":11}]}`, clarityID)),
			token: profToken, wantCode: http.StatusBadRequest},
		{name: "update: foreign criterion", method: http.MethodPut, path: "/v1/evaluations/" + evalID,
			body:  []byte(`{"scores":[{"criterion_id":"ghost","score":5}]}`),
			token: profToken, wantCode: http.StatusBadRequest},
		{name: "update: ok", method: http.MethodPut, path: "/v1/evaluations/" + evalID,
			body:  []byte(fmt.Sprintf(`{"scores":[{"criterion_id":%q,"score":8}],"grade":15,"status":"completed"}`, clarityID)),
			token: profToken, wantCode: http.StatusOK},
		{name: "update: terminal status is final", method: http.MethodPut, path: "/v1/evaluations/" + evalID,
			body:  []byte(`{"status":"pending"}`),
			token: profToken, wantCode: http.StatusBadRequest},
		{name: "retrieve: ok", method: http.MethodGet, path: "/v1/evaluations/" + evalID,
			token: profToken, wantCode: http.StatusOK},
		{name: "retrieve: not found", method: http.MethodGet, path: "/v1/evaluations/ghost",
			token: profToken, wantCode: http.StatusNotFound},
		{name: "query: by status", method: http.MethodGet, path: "/v1/evaluations?status=completed",
			token: profToken, wantCode: http.StatusOK},
		{name: "pending: by professor", method: http.MethodGet, path: "/v1/evaluations/pending?professor=" + prof.ID,
			token: profToken, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	t.Run("retrieve carries scores and student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/evaluations/"+evalID, profToken)
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var info evaluation.Info
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, s1.ID, info.Student.ID)
		assert.Equal(t, evaluation.StatusCompleted, info.Status)
		require.Len(t, info.Scores, 1)
		assert.Equal(t, clarityID, info.Scores[0].CriterionID)
	})
}
