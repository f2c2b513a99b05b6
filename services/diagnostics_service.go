package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/config"
	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// CheckStatus is the outcome of one diagnostic check.
type CheckStatus string

const (
	CheckOK      CheckStatus = "ok"
	CheckWarn    CheckStatus = "warn"
	CheckFail    CheckStatus = "fail"
	CheckSkipped CheckStatus = "skipped"
)

// Supabase key roles.
const (
	RoleAnon        = "anon"
	RoleServiceRole = "service_role"
)

// ProbeSlug is the key of the row written by the write probe.
const ProbeSlug = "diagnostic-probe"

// DiagnosticCheck is one line of the diagnostics report.
type DiagnosticCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
}

// DiagnosticsService checks that the configured sink will accept a sync run.
type DiagnosticsService struct {
	cfg    *config.Config
	sink   database.Sink
	logger *logrus.Entry
}

// NewDiagnosticsService creates a diagnostics service. sink may be nil when it
// could not be opened; the connectivity check then fails.
func NewDiagnosticsService(cfg *config.Config, sink database.Sink) *DiagnosticsService {
	return &DiagnosticsService{
		cfg:    cfg,
		sink:   sink,
		logger: logrus.WithField("component", "DiagnosticsService"),
	}
}

// Run executes every check in order. With probe set, a minimal row is upserted
// into the ipos table to prove write access.
func (s *DiagnosticsService) Run(ctx context.Context, probe bool) []DiagnosticCheck {
	checks := []DiagnosticCheck{
		s.checkEnvironment(),
		s.checkKeyRole(),
		s.checkRapidAPIKey(),
		s.checkConnectivity(ctx),
		s.checkSchema(ctx),
	}
	if probe {
		checks = append(checks, s.checkWrite(ctx))
	} else {
		checks = append(checks, DiagnosticCheck{Name: "write_probe", Status: CheckSkipped, Message: "run with --probe to test write access"})
	}

	for _, check := range checks {
		entry := s.logger.WithFields(logrus.Fields{"check": check.Name, "status": check.Status})
		switch check.Status {
		case CheckFail:
			entry.Error(check.Message)
		case CheckWarn:
			entry.Warn(check.Message)
		default:
			entry.Info(check.Message)
		}
	}
	return checks
}

// Healthy reports whether no check failed.
func Healthy(checks []DiagnosticCheck) bool {
	for _, check := range checks {
		if check.Status == CheckFail {
			return false
		}
	}
	return true
}

func (s *DiagnosticsService) checkEnvironment() DiagnosticCheck {
	check := DiagnosticCheck{Name: "environment"}
	if err := s.cfg.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}
	check.Status = CheckOK
	check.Message = "sink driver " + s.cfg.SinkDriver + " is configured"
	return check
}

func (s *DiagnosticsService) checkKeyRole() DiagnosticCheck {
	check := DiagnosticCheck{Name: "key_role"}
	if s.cfg.SinkDriver != config.SinkSupabase {
		check.Status = CheckSkipped
		check.Message = "only applies to the supabase sink"
		return check
	}

	role, err := KeyRole(s.cfg.SupabaseKey)
	switch {
	case err != nil:
		check.Status = CheckWarn
		check.Message = "SUPABASE_KEY is not a readable JWT: " + err.Error()
	case role == RoleServiceRole:
		check.Status = CheckOK
		check.Message = "using the service_role key"
	case role == RoleAnon:
		check.Status = CheckWarn
		check.Message = "using the anon key, writes need row level security policies or the service_role key"
	default:
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("unexpected key role %q", role)
	}
	return check
}

// KeyRole reads the role claim of a Supabase API key without verifying its
// signature.
func KeyRole(key string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return "", err
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return "", fmt.Errorf("token has no role claim")
	}
	return role, nil
}

func (s *DiagnosticsService) checkRapidAPIKey() DiagnosticCheck {
	if s.cfg.RapidAPIKey == "" {
		return DiagnosticCheck{Name: "rapidapi_key", Status: CheckWarn, Message: "RAPIDAPI_KEY is not set, the api job will only use NSE"}
	}
	return DiagnosticCheck{Name: "rapidapi_key", Status: CheckOK, Message: "RAPIDAPI_KEY is set"}
}

func (s *DiagnosticsService) checkConnectivity(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "sink_connectivity"}
	if s.sink == nil {
		check.Status = CheckFail
		check.Message = "sink could not be opened"
		return check
	}
	if err := s.sink.Ping(ctx); err != nil {
		shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkUnavailable, "DiagnosticsService", "checkConnectivity", true).LogWarning()
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}
	check.Status = CheckOK
	check.Message = "sink is reachable"
	return check
}

func (s *DiagnosticsService) checkSchema(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "schema"}

	sqlSink, ok := s.sink.(*database.SQLSink)
	if !ok || sqlSink.Driver() != database.DriverPostgres {
		check.Status = CheckSkipped
		check.Message = "schema is only inspected on postgres"
		return check
	}

	results, err := database.NewSchemaValidator(sqlSink.DB()).Validate(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}

	var problems []string
	for _, result := range results {
		switch {
		case !result.Exists:
			problems = append(problems, result.TableName+" is missing")
		case !result.IsValid():
			problems = append(problems, result.TableName+" lacks "+strings.Join(result.MissingColumns, ", "))
		}
	}
	if len(problems) > 0 {
		check.Status = CheckFail
		check.Message = strings.Join(problems, "; ")
		return check
	}
	check.Status = CheckOK
	check.Message = fmt.Sprintf("%d tables match", len(results))
	return check
}

// ProbeRow is the minimal ipos row the write probe upserts.
func ProbeRow() database.Row {
	return database.Row{
		"slug":     ProbeSlug,
		"ipo_name": "Diagnostic Probe IPO",
		"status":   string(models.StatusUpcoming),
		"lot_size": 1,
		"category": string(models.CategoryMainboard),
	}
}

func (s *DiagnosticsService) checkWrite(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "write_probe"}
	if s.sink == nil {
		check.Status = CheckFail
		check.Message = "sink could not be opened"
		return check
	}

	err := s.sink.Upsert(ctx, models.IPOTable, []database.Row{ProbeRow()}, models.IPOConflictKey)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		if strings.Contains(strings.ToLower(err.Error()), "permission denied") {
			check.Message += " (use the service_role key or add insert and update policies on ipos)"
		}
		return check
	}
	check.Status = CheckOK
	check.Message = "upserted " + ProbeSlug + " into " + models.IPOTable
	return check
}
