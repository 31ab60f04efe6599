package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/server/internal/module/auth"
)

type fakeValidator struct {
	claims *auth.Claims
	err    error
}

func (f *fakeValidator) ValidateAccessToken(_ string) (*auth.Claims, error) {
	return f.claims, f.err
}

func performAuth(t *testing.T, validator TokenValidator, header string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", RequireAuth(validator), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(AuthorizationHeader, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// Auth failures use the same {"error","message"} body shape as the
// module handlers, so clients read the detail from one field.
func TestRequireAuth_ErrorShape(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		w := performAuth(t, &fakeValidator{}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "unauthorized", body["error"])
		assert.Equal(t, "Authorization header required", body["message"])
		assert.NotContains(t, body, "code")
	})

	t.Run("invalid token", func(t *testing.T) {
		w := performAuth(t, &fakeValidator{err: errors.New("expired")}, "Bearer bad")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "invalid_token", body["error"])
		assert.Equal(t, "Invalid or expired token", body["message"])
	})
}

func TestRequireAuth_SetsIdentity(t *testing.T) {
	validator := &fakeValidator{claims: &auth.Claims{UserID: 42, Role: "member"}}
	w := performAuth(t, validator, "Bearer good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}
