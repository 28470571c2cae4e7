package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			contact       TEXT NOT NULL DEFAULT '',
			latitude      REAL NOT NULL DEFAULT 0,
			longitude     REAL NOT NULL DEFAULT 0,
			created_at    INTEGER NOT NULL
		);
		CREATE TABLE sessions (
			token      TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(NewRepository(setupTestDB(t), log), 72*time.Hour, log)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, verifyPassword(hash, "secret123"))
	assert.False(t, verifyPassword(hash, "secret124"))
	assert.False(t, verifyPassword("garbage", "secret123"))
	assert.False(t, verifyPassword("", "secret123"))

	// Fresh salt every time.
	hash2, err := hashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
	assert.True(t, verifyPassword(hash2, "secret123"))
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)

	t.Run("creates user", func(t *testing.T) {
		user, err := svc.Register("Ravi", "secret123", RoleFarmer, "9900990099", 12.97, 77.59)
		require.NoError(t, err)
		assert.Equal(t, "ravi", user.Username, "username is lowercased")
		assert.Equal(t, RoleFarmer, user.Role)
		assert.NotZero(t, user.ID)
		assert.NotContains(t, user.PasswordHash, "secret123")
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register("ravi", "different", RoleRetailer, "", 0, 0)
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Register("ab", "secret123", RoleFarmer, "", 0, 0)
		assert.Error(t, err, "short username")

		_, err = svc.Register("valid", "short", RoleFarmer, "", 0, 0)
		assert.Error(t, err, "short password")

		_, err = svc.Register("valid", "secret123", "wizard", "", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestCountUsersByRole(t *testing.T) {
	svc := newTestService(t)

	for _, u := range []struct{ name, role string }{
		{"farmer1", RoleFarmer},
		{"farmer2", RoleFarmer},
		{"owner1", RoleMandiOwner},
	} {
		_, err := svc.Register(u.name, "secret123", u.role, "", 0, 0)
		require.NoError(t, err)
	}

	counts, err := svc.repo.CountUsersByRole()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{RoleFarmer: 2, RoleMandiOwner: 1}, counts)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register("meera", "secret123", RoleMandiOwner, "", 12.96, 77.57)
	require.NoError(t, err)

	t.Run("login mints a session", func(t *testing.T) {
		session, loggedIn, err := svc.Login("meera", "secret123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, loggedIn.ID)
		assert.NotEmpty(t, session.Token)
		assert.Greater(t, session.ExpiresAt, time.Now().Unix())

		resolved, err := svc.Authenticate(session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login("meera", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login("nobody", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("logout invalidates", func(t *testing.T) {
		session, _, err := svc.Login("meera", "secret123")
		require.NoError(t, err)
		require.NoError(t, svc.Logout(session.Token))

		_, err = svc.Authenticate(session.Token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("expired session rejected", func(t *testing.T) {
		expired := &Session{
			Token:     "expired-token",
			UserID:    user.ID,
			CreatedAt: time.Now().Add(-100 * time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-1 * time.Hour).Unix(),
		}
		require.NoError(t, svc.repo.CreateSession(expired))

		_, err := svc.Authenticate("expired-token")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		_, err := svc.Authenticate("")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})
}

func TestReapExpiredSessions(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register("asha", "secret123", RoleRetailer, "", 0, 0)
	require.NoError(t, err)

	live, _, err := svc.Login("asha", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.repo.CreateSession(&Session{
		Token:     "stale",
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-80 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-8 * time.Hour).Unix(),
	}))

	n, err := svc.ReapExpiredSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = svc.Authenticate(live.Token)
	assert.NoError(t, err, "live session survives the sweep")
}

func TestMiddleware(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register("farmer1", "secret123", RoleFarmer, "", 0, 0)
	require.NoError(t, err)
	farmerSession, _, err := svc.Login("farmer1", "secret123")
	require.NoError(t, err)

	_, err = svc.Register("admin1", "secret123", RoleAdmin, "", 0, 0)
	require.NoError(t, err)
	adminSession, _, err := svc.Login("admin1", "secret123")
	require.NoError(t, err)

	echoRole := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Role))
	})

	do := func(handler http.Handler, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing token", func(t *testing.T) {
		rec := do(svc.RequireAuth(echoRole), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		rec := do(svc.RequireAuth(echoRole), "not-a-session")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token injects user", func(t *testing.T) {
		rec := do(svc.RequireAuth(echoRole), farmerSession.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, RoleFarmer, rec.Body.String())
	})

	t.Run("role gate blocks other roles", func(t *testing.T) {
		guarded := svc.RequireAuth(RequireRole(RoleMandiOwner)(echoRole))
		rec := do(guarded, farmerSession.Token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role gate passes matching role", func(t *testing.T) {
		guarded := svc.RequireAuth(RequireRole(RoleFarmer)(echoRole))
		rec := do(guarded, farmerSession.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin passes every gate", func(t *testing.T) {
		guarded := svc.RequireAuth(RequireRole(RoleMandiOwner)(echoRole))
		rec := do(guarded, adminSession.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
