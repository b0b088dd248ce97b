package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/utils"
)

const testSecret = "test-secret"

func TestParseAccessToken_RoundTrip(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "OWNER", 5)
	require.NoError(t, err)

	userID, role, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	assert.Equal(t, "OWNER", role)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "STUDENT", 5)
	require.NoError(t, err)

	_, _, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Garbage(t *testing.T) {
	_, _, err := ParseAccessToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuth_InjectsIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "STUDENT", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID uint64
	var gotRole string
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotID, _ = UserID(c)
		gotRole = Role(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, uint64(7), gotID)
	assert.Equal(t, "STUDENT", gotRole)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(func(c echo.Context) error {
		t.Fatal("handler must not run without a token")
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role any, allowed ...string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, h(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("OWNER", "OWNER"))
	assert.Equal(t, http.StatusForbidden, run("STUDENT", "OWNER"))
	assert.Equal(t, http.StatusForbidden, run(nil, "OWNER"))
}
