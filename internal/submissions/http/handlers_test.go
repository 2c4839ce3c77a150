package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/brokerdesk/submission-backend/internal/submissions/repository"
	"github.com/brokerdesk/submission-backend/internal/submissions/service"
)

func setupHandler(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *sql.DB) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	svc := service.NewSubmissionService(repository.NewSubmissionRepository(db))
	router := gin.New()
	New(svc).Register(router.Group("/submissions"))
	return router, mock, db
}

func submissionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "folder_id", "document_id", "status", "current_version",
		"data", "field_confidence", "created_at", "updated_at",
	}).AddRow(
		"sub-1", "folder-1", "doc-1", domain.StatusExtracted, 1,
		[]byte(`{"premium":5000}`),
		[]byte(`{"premium":0.55,"policy_number":0.98}`),
		time.Now(), time.Now(),
	)
}

func TestGetSubmission(t *testing.T) {
	t.Run("returns submission", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, folder_id, document_id`).
			WithArgs("sub-1").
			WillReturnRows(submissionRows())

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/submissions/sub-1", nil)
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			OK         bool `json:"ok"`
			Submission struct {
				ID             string `json:"submission_id"`
				CurrentVersion int    `json:"current_version"`
			} `json:"submission"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.OK)
		assert.Equal(t, "sub-1", body.Submission.ID)
		assert.Equal(t, 1, body.Submission.CurrentVersion)
	})

	t.Run("projects low-confidence fields on request", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, folder_id, document_id`).
			WithArgs("sub-1").
			WillReturnRows(submissionRows())

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/submissions/sub-1?max_confidence=0.7", nil)
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			LowConfidence []struct {
				Field      string  `json:"field"`
				Confidence float64 `json:"confidence"`
			} `json:"low_confidence_fields"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.LowConfidence, 1)
		assert.Equal(t, "premium", body.LowConfidence[0].Field)
		assert.Equal(t, 0.55, body.LowConfidence[0].Confidence)
	})

	t.Run("missing submission returns 404", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, folder_id, document_id`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/submissions/nope", nil)
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateData(t *testing.T) {
	t.Run("commits a new version with the caller as actor", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, folder_id, document_id`).
			WithArgs("sub-1").
			WillReturnRows(submissionRows())
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE submissions`).
			WithArgs(sqlmock.AnyArg(), domain.StatusUpdated, 2, "sub-1", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO submission_versions`).
			WithArgs(sqlmock.AnyArg(), "sub-1", 2, domain.ActionUpdate, "underwriter-7",
				"", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectQuery(`INSERT INTO submission_audit`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/submissions/sub-1/data",
			strings.NewReader(`{"data":{"premium":5200}}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", "underwriter-7")
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race returns 409", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, folder_id, document_id`).
			WithArgs("sub-1").
			WillReturnRows(submissionRows())
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE submissions`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/submissions/sub-1/data",
			strings.NewReader(`{"data":{"premium":5200}}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("body without data returns 400", func(t *testing.T) {
		router, _, db := setupHandler(t)
		defer db.Close()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/submissions/sub-1/data", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("reserved actions are rejected", func(t *testing.T) {
		for _, action := range []string{domain.ActionRollback, domain.ActionExtract, "merge"} {
			router, mock, db := setupHandler(t)

			rr := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/submissions/sub-1/data",
				strings.NewReader(`{"data":{"premium":5200},"action":"`+action+`"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, "action %q", action)
			// Nothing may reach the version store.
			assert.NoError(t, mock.ExpectationsWereMet())
			db.Close()
		}
	})
}

func TestRollbackBody(t *testing.T) {
	t.Run("malformed body returns 400", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/submissions/sub-1/versions/ver-1/rollback",
			strings.NewReader(`{"notes":`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		router, mock, db := setupHandler(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, submission_id, version_number`).
			WithArgs("sub-1", "ver-9").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/submissions/sub-1/versions/ver-9/rollback",
			strings.NewReader(``))
		router.ServeHTTP(rr, req)

		// Past the body check: the missing target version is what fails.
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
