package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/middleware"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/utils"
)

// serve routes one request through a mux router holding only pattern,
// authenticated as caller when non-nil.
func serve(t *testing.T, h http.HandlerFunc, method, pattern, url string, body any, caller *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	router := mux.NewRouter()
	router.HandleFunc(pattern, h).Methods(method)

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req = req.WithContext(middleware.WithCaller(req.Context(), caller.ID, caller.Role))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}
