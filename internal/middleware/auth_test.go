package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, mw echo.MiddlewareFunc, header string) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feeds", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var uid string
	err := mw(func(c echo.Context) error {
		uid, _ = c.Get(ContextKeyUID).(string)
		return nil
	})(c)
	return uid, err
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	assert.Equal(t, code, he.Code)
}

func signed(t *testing.T, secret string, claims *models.JwtCustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTAuthMiddleware(t *testing.T) {
	mw := JWTAuthMiddleware("secret")
	valid := signed(t, "secret", &models.JwtCustomClaims{
		UID:              "u-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	uid, err := serve(t, mw, "Bearer "+valid)
	require.NoError(t, err)
	assert.Equal(t, "u-1", uid)

	_, err = serve(t, mw, "")
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = serve(t, mw, "Token "+valid)
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = serve(t, mw, "Bearer "+signed(t, "other", &models.JwtCustomClaims{UID: "u-1"}))
	assertStatus(t, err, http.StatusUnauthorized)

	expired := signed(t, "secret", &models.JwtCustomClaims{
		UID:              "u-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	_, err = serve(t, mw, "Bearer "+expired)
	assertStatus(t, err, http.StatusUnauthorized)
}

type verifierFunc func(ctx context.Context, idToken string) (*auth.Token, error)

func (f verifierFunc) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return f(ctx, idToken)
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	mw := FirebaseAuthMiddleware(verifierFunc(func(_ context.Context, idToken string) (*auth.Token, error) {
		if idToken != "good" {
			return nil, errors.New("bad token")
		}
		return &auth.Token{UID: "firebase-uid"}, nil
	}))

	uid, err := serve(t, mw, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", uid)

	_, err = serve(t, mw, "Bearer bad")
	assertStatus(t, err, http.StatusUnauthorized)
}
