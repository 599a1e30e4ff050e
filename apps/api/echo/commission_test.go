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
	"github.com/evalia/backend/core/reference"
)

func TestCommissionAPI(t *testing.T) {
	server, db, conf := setupServer(t)

	adminToken := getToken(t, conf, false, true)
	profToken := getToken(t, conf, true, false)

	prof := db.AddProfessor(reference.Professor{Name: "Dr. Kim", Email: "kim@uni.test"})
	theme := db.AddTheme(reference.Theme{Name: "Distributed Systems"})
	s1 := db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	newCom := func(name, group string, students ...string) []byte {
		return marshallObj(t, commission.NewCommission{
			Name:        name,
			ProfessorID: prof.ID,
			ThemeID:     theme.ID,
			Date:        "2026-02-10",
			Time:        "09:00",
			EvalGroup:   group,
			StudentIDs:  students,
		})
	}

	tests := []httpTest{
		{name: "create: auth required", method: http.MethodPost, path: "/v1/commissions",
			body: newCom("Finals A", "2026_1"), wantCode: http.StatusUnauthorized},
		{name: "create: admin required", method: http.MethodPost, path: "/v1/commissions",
			body: newCom("Finals A", "2026_1"), token: profToken, wantCode: http.StatusForbidden},
		{name: "create: missing fields", method: http.MethodPost, path: "/v1/commissions",
			body: []byte(`{"name": "Finals A"}`), token: adminToken, wantCode: http.StatusBadRequest},
		{name: "create: bad date format", method: http.MethodPost, path: "/v1/commissions",
			body: []byte(fmt.Sprintf(`{"name":"Finals A","professor_id":%q,"theme_id":%q,"date":"10/02/2026","time":"09:00","eval_group":"2026_1"}`, prof.ID, theme.ID)),
			token: adminToken, wantCode: http.StatusBadRequest},
		{name: "create: unknown field rejected", method: http.MethodPost, path: "/v1/commissions",
			body: []byte(`{"name":"Finals A","nope":1}`), token: adminToken, wantCode: http.StatusBadRequest},
		{name: "create: ok", method: http.MethodPost, path: "/v1/commissions",
			body: newCom("Finals A", "2026_1", s1.ID), token: adminToken, wantCode: http.StatusCreated},
		{name: "create: duplicate name", method: http.MethodPost, path: "/v1/commissions",
			body: newCom("Finals A", "2026_1"), token: adminToken, wantCode: http.StatusBadRequest},
		{name: "create: student already assigned in group", method: http.MethodPost, path: "/v1/commissions",
			body: newCom("Finals B", "2026_1", s1.ID), token: adminToken, wantCode: http.StatusConflict},
		{name: "query: ok", method: http.MethodGet, path: "/v1/commissions", token: profToken, wantCode: http.StatusOK},
		{name: "retrieve: not found", method: http.MethodGet, path: "/v1/commissions/ghost",
			token: profToken, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestCommissionAPI_lifecycle(t *testing.T) {
	server, db, conf := setupServer(t)
	adminToken := getToken(t, conf, false, true)

	prof := db.AddProfessor(reference.Professor{Name: "Dr. Kim", Email: "kim@uni.test"})
	theme := db.AddTheme(reference.Theme{Name: "Distributed Systems"})
	s1 := db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	// create
	body := marshallObj(t, commission.NewCommission{
		Name:        "Finals A",
		ProfessorID: prof.ID,
		ThemeID:     theme.ID,
		Date:        "2026-02-10",
		Time:        "09:00",
		EvalGroup:   "2026_1",
		StudentIDs:  []string{s1.ID},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/commissions", adminToken, body)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info commission.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Len(t, info.Roster, 1)

	// retrieve by theme
	req, rec = newAuthRequest(http.MethodGet, "/v1/themes/"+theme.ID+"/commissions", adminToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []commission.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	assert.Len(t, infos, 1)

	// complete the roster evaluation, then delete must conflict
	req, rec = newAuthRequest(
		http.MethodPut, "/v1/evaluations/"+info.Roster[0].EvaluationID, adminToken,
		[]byte(fmt.Sprintf(`{"status":%q,"grade":16}`, evaluation.StatusCompleted)),
	)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodDelete, "/v1/commissions/"+info.ID, adminToken)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// the commission is now finalized
	req, rec = newAuthRequest(http.MethodGet, "/v1/commissions/"+info.ID, adminToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.Finalized)
}
