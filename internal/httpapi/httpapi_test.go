package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/keepup/internal/httpapi"
	"github.com/rezkam/keepup/internal/store/memstore"
)

func TestCreateAndGetItem(t *testing.T) {
	facade := memstore.New()
	_, router := httpapi.NewServer(facade)

	body := []byte(`{
		"type": "deadline_task",
		"name": "Renew passport",
		"schedule": {"kind": "deadline_task", "deadline_task": {"duration_seconds": 259200}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/items/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	getReq := httptest.NewRequest(http.MethodGet, "/items/"+id, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
}

func TestCreateItemRejectsEmptyName(t *testing.T) {
	facade := memstore.New()
	_, router := httpapi.NewServer(facade)

	body := []byte(`{
		"type": "deadline_task",
		"name": "",
		"schedule": {"kind": "deadline_task", "deadline_task": {"duration_seconds": 3600}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/items/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrentOccurrencesEndpoint(t *testing.T) {
	facade := memstore.New()
	fixedNow := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	_, router := httpapi.NewServer(facade, httpapi.WithClock(func() time.Time { return fixedNow }))

	body := []byte(`{
		"type": "deadline_task",
		"name": "Renew passport",
		"schedule": {"kind": "deadline_task", "deadline_task": {"duration_seconds": 259200}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/items/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	curReq := httptest.NewRequest(http.MethodGet, "/current", nil)
	curRec := httptest.NewRecorder()
	router.ServeHTTP(curRec, curReq)
	require.Equal(t, http.StatusOK, curRec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(curRec.Body.Bytes(), &got))
	require.Len(t, got, 1)
}
