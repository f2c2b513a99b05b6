package database

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/config"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// OpenSink builds the sink selected by cfg.SinkDriver. SQL sinks are migrated
// before they are returned.
func OpenSink(ctx context.Context, cfg *config.Config) (Sink, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "Database",
		"method":    "OpenSink",
		"driver":    cfg.SinkDriver,
	})

	switch cfg.SinkDriver {
	case config.SinkPostgres:
		sink, err := OpenPostgresSink(ctx, cfg.DatabaseURL, DefaultPoolConfig())
		if err != nil {
			return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkUnavailable, "Database", "OpenSink", true)
		}
		return sink, nil
	case config.SinkSupabase:
		logger.Info("Writing through the Supabase REST API")
		client := shared.NewRestyClient(shared.HTTPClientOptions{
			Timeout:    cfg.HTTPTimeout,
			RetryCount: 2,
			Accept:     shared.AcceptJSON,
		})
		return NewSupabaseSink(cfg.SupabaseURL, cfg.SupabaseKey, client), nil
	case config.SinkSQLite:
		sink, err := OpenSQLiteSink(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkUnavailable, "Database", "OpenSink", false)
		}
		return sink, nil
	default:
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, shared.CodeConfigMissing,
			"unknown SINK_DRIVER "+cfg.SinkDriver, "Database", "OpenSink", false, nil)
	}
}
