package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-tickets/internal/config"
	"github.com/iliyamo/theater-tickets/internal/logging"
	"github.com/iliyamo/theater-tickets/internal/model"
)

const testSecret = "s3cret"

func hmacToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// serve runs mw in front of a handler that echoes the stored identity.
func serve(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, model.Identity) {
	t.Helper()
	e := echo.New()
	var seen model.Identity
	e.GET("/me", func(c echo.Context) error {
		seen, _ = IdentityFrom(c)
		return c.NoContent(http.StatusNoContent)
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthenticate_HMAC(t *testing.T) {
	mw, err := Authenticate(AuthConfig{Secret: testSecret})
	require.NoError(t, err)

	tok := hmacToken(t, jwt.MapClaims{
		"sub":  "user-1",
		"name": "Ada Lovelace",
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	rec, id := serve(t, mw, "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, model.Identity{ID: "user-1", DisplayName: "Ada Lovelace", Role: "ADMIN"}, id)
}

func TestAuthenticate_FirstAndLastName(t *testing.T) {
	mw, err := Authenticate(AuthConfig{Secret: testSecret})
	require.NoError(t, err)

	tok := hmacToken(t, jwt.MapClaims{"sub": "user-2", "first_name": "Grace", "last_name": "Hopper"})
	rec, id := serve(t, mw, "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Grace Hopper", id.DisplayName)
	assert.Equal(t, "", id.Role)
}

func TestAuthenticate_Rejects(t *testing.T) {
	mw, err := Authenticate(AuthConfig{Secret: testSecret})
	require.NoError(t, err)

	rec, _ := serve(t, mw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, mw, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := hmacToken(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()})
	rec, _ = serve(t, mw, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("other"))
	require.NoError(t, err)
	rec, _ = serve(t, mw, "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	noSub := hmacToken(t, jwt.MapClaims{"name": "x"})
	rec, _ = serve(t, mw, "Bearer "+noSub)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_RSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	mw, err := Authenticate(AuthConfig{PublicKeyPEM: string(pemKey)})
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"sub": "user-3"}).SignedString(key)
	require.NoError(t, err)
	rec, id := serve(t, mw, "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-3", id.ID)

	// An HMAC token is refused when only the public key is configured.
	rec, _ = serve(t, mw, "Bearer "+hmacToken(t, jwt.MapClaims{"sub": "user-3"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_Config(t *testing.T) {
	_, err := Authenticate(AuthConfig{})
	assert.Error(t, err)
	_, err = Authenticate(AuthConfig{PublicKeyPEM: "garbage"})
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	h := RequireRole(model.RoleAdmin)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	SetIdentity(c, model.Identity{ID: "u", Role: "USER"})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	SetIdentity(c, model.Identity{ID: "u", Role: model.RoleAdmin})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisCache(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "catalog",
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/catalog/search", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"q": c.QueryParam("query")})
	}, NewRedisCache(cfg, rdb))

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	first := get("/v1/catalog/search?query=heat&page=1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("/v1/catalog/search?page=1&query=heat")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	third := get("/v1/catalog/search?query=ronin")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCache_SkipsErrorsAndPassesThroughWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, Prefix: "catalog"}
	calls := 0
	h := func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog down"})
	}

	e := echo.New()
	e.GET("/cached", h, NewRedisCache(cfg, newRedis(t)))
	e.GET("/plain", h, NewRedisCache(cfg, nil))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cached", nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 4, calls)
}

func TestTokenBucket(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "user",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/v1/checkout", func(c echo.Context) error {
		return c.NoContent(http.StatusAccepted)
	}, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetIdentity(c, model.Identity{ID: c.Request().Header.Get("X-User")})
			return next(c)
		}
	}, NewTokenBucket(cfg, newRedis(t)))

	post := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/checkout", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusAccepted, post("a").Code)
	second := post("a")
	assert.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := post("a")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusAccepted, post("b").Code)
}

func TestRequestLogger(t *testing.T) {
	e := echo.New()
	var correlationID string
	e.GET("/x", func(c echo.Context) error {
		correlationID = logging.CorrelationIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, RequestLogger())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, correlationID)
	assert.Equal(t, correlationID, rec.Header().Get(CorrelationHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", correlationID)
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationHeader))
}
