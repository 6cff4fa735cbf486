package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	logsvc "github.com/kampus/backend/services/logger"
	"github.com/kampus/backend/storage/database/sqlxrepos"
	"github.com/kampus/backend/tests"
)

type testEnv struct {
	db         *sqlx.DB
	app        Server
	campusRepo campus.Repository
	expRepo    folio.ExpenseRepository
}

func setup(t *testing.T) testEnv {
	db := testutil.PrepareDB(t)
	env := testEnv{
		db:         db,
		campusRepo: sqlxrepos.NewCampusRepository(db),
		expRepo:    sqlxrepos.NewExpenseRepository(db),
	}

	campusSvc := campus.NewService(env.campusRepo)
	alloc := folio.NewAllocator(campusSvc, campusSvc, sqlxrepos.NewSequenceRepository(db, nil), nil, nil)
	logger := logsvc.NewDiscardLogger()
	folioSvc := folio.NewService(db, alloc, sqlxrepos.NewTransactionRepository(db), env.expRepo, logger)
	validate, translator := folio.NewValidator()

	env.app = NewServer(ServerDeps{
		Conf:       testutil.NewConfig(t.TempDir()),
		Logger:     logger,
		FolioSvc:   folioSvc,
		Validate:   validate,
		Translator: translator,
	})
	return env
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
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

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

// decode reads the JSON response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
	return m
}
