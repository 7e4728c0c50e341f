package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
	"github.com/shandysiswandi/gootp/internal/verification/outbound/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moduleYAML = `
database:
  migrate: true
modules:
  verification:
    enabled: true
    pass_length: 6
    allowed_symbols: "0123456789"
    creation_code_threshold_seconds: 60
    limit_per_hour: 5
    password_validation_period_seconds: 600
    max_attempts: 3
    lock_ttl_seconds: 5
    fixed_passes: "review@example.com:000000"
`

func newTestDependency(t *testing.T, yaml string) (Dependency, *router.Router) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	conn, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sf, err := uid.NewSnowflakeNode(1)
	require.NoError(t, err)

	ins := instrument.NewNoop()
	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: ins})

	return Dependency{
		Ctx:        context.Background(),
		SQLiteConn: conn,
		Goroutine:  goroutine.NewManager(4),
		Router:     r,
		Messaging:  messaging.NewNoop(),
		Config:     cfg,
		Instrument: ins,
		UID:        sf,
		OID:        uid.NewULID(),
		Token:      uid.NewToken(uid.DefaultTokenSize),
		Clock:      clock.NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Validator:  v,
	}, r
}

func post(t *testing.T, r http.Handler, path, body string) (int, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))

	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return rec.Code, out
}

func TestNew_EndToEnd(t *testing.T) {
	dep, r := newTestDependency(t, moduleYAML)
	require.NoError(t, New(dep))

	status, out := post(t, r, "/api/v1/verification/codes", `{"address":"Review@Example.com","data":{"flow":"signup"}}`)
	require.Equal(t, http.StatusCreated, status)

	data := out["data"].(map[string]any)
	assert.Equal(t, "review@example.com", data["address"])
	assert.Equal(t, "email", data["address_kind"])
	vc := data["verification_code"].(string)

	status, _ = post(t, r, "/api/v1/verification/codes", `{"address":"review@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = post(t, r, "/api/v1/verification/codes/verify", `{"verification_code":"`+vc+`","pass":"111111"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	// the fixed pass hook supplies the pass for the review account
	status, out = post(t, r, "/api/v1/verification/codes/verify", `{"verification_code":"`+vc+`","pass":"000000"}`)
	require.Equal(t, http.StatusOK, status)
	data = out["data"].(map[string]any)
	assert.Equal(t, map[string]any{"flow": "signup"}, data["verification_data"])
	assert.Equal(t, float64(1), data["attempts"])

	status, _ = post(t, r, "/api/v1/verification/codes/verify", `{"verification_code":"`+vc+`","pass":"000000"}`)
	assert.Equal(t, http.StatusNotFound, status)

	require.NoError(t, dep.Goroutine.Wait())
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		dep, _ := newTestDependency(t, moduleYAML)
		dep.SQLiteConn = nil
		assert.Error(t, New(dep))
	})

	t.Run("invalid policy", func(t *testing.T) {
		dep, _ := newTestDependency(t, "modules: {verification: {pass_length: 0}}")
		assert.Error(t, New(dep))
	})

	t.Run("unknown generator", func(t *testing.T) {
		dep, _ := newTestDependency(t, moduleYAML+"    generator: totp\n")
		assert.ErrorIs(t, New(dep), ErrUnknownGenerator)
	})

	t.Run("hotp without secret", func(t *testing.T) {
		dep, _ := newTestDependency(t, moduleYAML+"    generator: hotp\n")
		assert.Error(t, New(dep))
	})

	t.Run("hotp with letters", func(t *testing.T) {
		yaml := strings.Replace(moduleYAML, `allowed_symbols: "0123456789"`, `allowed_symbols: "ABCDEF"`, 1)
		dep, _ := newTestDependency(t, yaml+"    generator: hotp\n    hotp_secret: MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=\n")
		assert.ErrorIs(t, New(dep), ErrGeneratorSymbols)
	})

	t.Run("hotp with unsupported length", func(t *testing.T) {
		yaml := strings.Replace(moduleYAML, "pass_length: 6", "pass_length: 4", 1)
		dep, _ := newTestDependency(t, yaml+"    generator: hotp\n    hotp_secret: MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=\n")
		assert.ErrorIs(t, New(dep), otp.ErrHOTPLength)
	})

	t.Run("lock ttl without expiry", func(t *testing.T) {
		yaml := strings.Replace(moduleYAML, "lock_ttl_seconds: 5", "lock_ttl_seconds: 0", 1)
		dep, _ := newTestDependency(t, yaml)
		assert.Error(t, New(dep))
	})
}
