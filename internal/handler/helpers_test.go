package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination map[string]interface{} `json:"pagination"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type listEnvelope struct {
	Data       []map[string]interface{} `json:"data"`
	Pagination map[string]interface{}   `json:"pagination"`
}

func newContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewBuffer(raw)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if reader != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

func asUser(c *gin.Context, userID string, role models.UserRole) *models.JWTClaims {
	claims := &models.JWTClaims{UserID: userID, Role: role}
	c.Set(middleware.ContextUserKey, claims)
	return claims
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}
