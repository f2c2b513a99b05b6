package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilmodi00/ipo-sync/config"
	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/models"
)

type stubSink struct {
	pingErr   error
	upsertErr error
	upserted  map[string][]database.Row
	inserted  map[string][]database.Row
}

func (s *stubSink) Upsert(_ context.Context, table string, rows []database.Row, _ string) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.upserted == nil {
		s.upserted = make(map[string][]database.Row)
	}
	s.upserted[table] = append(s.upserted[table], rows...)
	return nil
}

func (s *stubSink) Insert(_ context.Context, table string, rows []database.Row) error {
	if s.inserted == nil {
		s.inserted = make(map[string][]database.Row)
	}
	s.inserted[table] = append(s.inserted[table], rows...)
	return nil
}

func (s *stubSink) Ping(context.Context) error { return s.pingErr }
func (s *stubSink) Close() error               { return nil }

func signedKey(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	key, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return key
}

func checksByName(checks []DiagnosticCheck) map[string]DiagnosticCheck {
	byName := make(map[string]DiagnosticCheck, len(checks))
	for _, check := range checks {
		byName[check.Name] = check
	}
	return byName
}

func TestKeyRole(t *testing.T) {
	role, err := KeyRole(signedKey(t, jwt.MapClaims{"role": RoleServiceRole, "iss": "supabase"}))
	require.NoError(t, err)
	assert.Equal(t, RoleServiceRole, role)

	_, err = KeyRole("not-a-token")
	assert.Error(t, err)

	_, err = KeyRole(signedKey(t, jwt.MapClaims{"iss": "supabase"}))
	assert.Error(t, err)
}

func TestDiagnosticsWarnsOnAnonKey(t *testing.T) {
	cfg := &config.Config{
		SinkDriver:      config.SinkSupabase,
		SupabaseURL:     "https://example.supabase.co",
		SupabaseKey:     signedKey(t, jwt.MapClaims{"role": RoleAnon}),
		UpsertChunkSize: 50,
		MatchThreshold:  0.4,
	}

	checks := checksByName(NewDiagnosticsService(cfg, &stubSink{}).Run(context.Background(), false))

	assert.Equal(t, CheckOK, checks["environment"].Status)
	assert.Equal(t, CheckWarn, checks["key_role"].Status)
	assert.Equal(t, CheckWarn, checks["rapidapi_key"].Status)
	assert.Equal(t, CheckOK, checks["sink_connectivity"].Status)
	assert.Equal(t, CheckSkipped, checks["schema"].Status)
	assert.Equal(t, CheckSkipped, checks["write_probe"].Status)
}

func TestDiagnosticsFailsOnUnreachableSink(t *testing.T) {
	cfg := &config.Config{SinkDriver: config.SinkSQLite, SQLitePath: "ipo.db", RapidAPIKey: "key"}

	checks := NewDiagnosticsService(cfg, &stubSink{pingErr: errors.New("connection refused")}).Run(context.Background(), false)

	assert.False(t, Healthy(checks))
	byName := checksByName(checks)
	assert.Equal(t, CheckFail, byName["sink_connectivity"].Status)
	assert.Contains(t, byName["sink_connectivity"].Message, "connection refused")
}

func TestDiagnosticsProbeReportsPermissionHint(t *testing.T) {
	cfg := &config.Config{SinkDriver: config.SinkSQLite, SQLitePath: "ipo.db", RapidAPIKey: "key"}
	sink := &stubSink{upsertErr: errors.New("permission denied for table ipos")}

	checks := checksByName(NewDiagnosticsService(cfg, sink).Run(context.Background(), true))

	assert.Equal(t, CheckFail, checks["write_probe"].Status)
	assert.Contains(t, checks["write_probe"].Message, "service_role")
}

func TestDiagnosticsProbeWritesToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipo.db")
	sink, err := database.OpenSQLiteSink(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })

	cfg := &config.Config{SinkDriver: config.SinkSQLite, SQLitePath: path, RapidAPIKey: "key"}
	checks := NewDiagnosticsService(cfg, sink).Run(context.Background(), true)
	assert.True(t, Healthy(checks))
	assert.Equal(t, CheckOK, checksByName(checks)["write_probe"].Status)

	record, err := sink.GetIPO(context.Background(), ProbeSlug)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, record.Status)
	assert.Equal(t, 1, record.LotSize)
}

func TestDiagnosticsWithoutSink(t *testing.T) {
	cfg := &config.Config{SinkDriver: "mysql"}

	checks := checksByName(NewDiagnosticsService(cfg, nil).Run(context.Background(), true))
	assert.Equal(t, CheckFail, checks["environment"].Status)
	assert.Equal(t, CheckFail, checks["sink_connectivity"].Status)
	assert.Equal(t, CheckFail, checks["write_probe"].Status)
}
