package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeAPIDoc(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Host = "emi.example.com"
	rec := httptest.NewRecorder()

	require.NoError(t, ServeAPIDoc(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Equal(t, "emi.example.com", doc["host"])
	assert.Equal(t, []interface{}{"http"}, doc["schemes"])
	assert.Equal(t, "/api/v1", doc["basePath"])

	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/emi-orders/{id}/installments/{index}/pay")
}
