package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/anonto42/farmfeed/backend/internal/testutil"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, key string, userID uint, expires time.Time) string {
	t.Helper()
	return signVersion(t, key, userID, 0, expires)
}

func signVersion(t *testing.T, key string, userID, version uint, expires time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:         userID,
		Username:       "alice",
		SessionVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func run(mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, uint, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var userID uint
	err := mw(func(c echo.Context) error {
		userID = c.Get(ContextUserKey).(*models.JwtCustomClaims).UserID
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, userID, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	return he.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.SeedUser(t, db, "alice")
	mw := JWTAuthMiddleware(secret, repositories.NewPostgresUserRepository(db))

	_, id, err := run(mw, "Bearer "+sign(t, secret, alice.ID, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	for name, header := range map[string]string{
		"missing":       "",
		"no scheme":     sign(t, secret, alice.ID, time.Now().Add(time.Hour)),
		"wrong secret":  "Bearer " + sign(t, "other", alice.ID, time.Now().Add(time.Hour)),
		"expired":       "Bearer " + sign(t, secret, alice.ID, time.Now().Add(-time.Hour)),
		"garbage token": "Bearer abc.def.ghi",
		"unknown user":  "Bearer " + sign(t, secret, 404, time.Now().Add(time.Hour)),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(mw, header)
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		})
	}
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid}, nil
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	users := repositories.NewPostgresUserRepository(db)
	linked := testutil.SeedUser(t, db, "linked")
	uid := "firebase-uid-1"
	require.NoError(t, db.Model(linked).Update("firebase_uid", uid).Error)

	mw := FirebaseAuthMiddleware(secret, fakeVerifier{"fb-good": uid, "fb-unlinked": "nobody"}, users)

	local := testutil.SeedUser(t, db, "local")
	_, id, err := run(mw, "Bearer "+sign(t, secret, local.ID, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, local.ID, id, "local tokens still work")

	_, id, err = run(mw, "Bearer fb-good")
	require.NoError(t, err)
	assert.Equal(t, linked.ID, id)

	_, _, err = run(mw, "Bearer fb-unlinked")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, _, err = run(mw, "Bearer fb-bad")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestJWTAuthMiddleware_RejectsTokensFromEndedSessions(t *testing.T) {
	db := testutil.NewDB(t)
	users := repositories.NewPostgresUserRepository(db)
	alice := testutil.SeedUser(t, db, "alice")
	expires := time.Now().Add(time.Hour)

	before := "Bearer " + signVersion(t, secret, alice.ID, 0, expires)
	require.NoError(t, users.BumpSessionVersion(context.Background(), alice.ID))
	after := "Bearer " + signVersion(t, secret, alice.ID, 1, expires)

	for name, mw := range map[string]echo.MiddlewareFunc{
		"jwt":      JWTAuthMiddleware(secret, users),
		"firebase": FirebaseAuthMiddleware(secret, fakeVerifier{}, users),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(mw, before)
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

			_, id, err := run(mw, after)
			require.NoError(t, err)
			assert.Equal(t, alice.ID, id)
		})
	}
}
