package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/signalsfoundry/pass-planner/internal/logging"
)

// ApplyEnv overrides selected fields from PASS_* variables. Invalid values
// are logged and ignored.
func (c *Config) ApplyEnv(log logging.Logger) {
	log = logging.OrNoop(log)
	ctx := context.Background()

	if raw := os.Getenv("PASS_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			c.Planner.Workers = n
		} else {
			log.Warn(ctx, "ignoring invalid PASS_WORKERS", logging.String("value", raw))
		}
	}
	if raw := os.Getenv("PASS_OUTPUT_TZ"); raw != "" {
		if _, err := time.LoadLocation(raw); err == nil {
			c.Output.Timezone = raw
		} else {
			log.Warn(ctx, "ignoring invalid PASS_OUTPUT_TZ", logging.String("value", raw), logging.Err(err))
		}
	}
	if raw := os.Getenv("PASS_HTTP_ADDR"); raw != "" {
		c.Server.HTTPAddr = raw
	}
	if raw := os.Getenv("PASS_GRPC_ADDR"); raw != "" {
		c.Server.GRPCAddr = raw
	}
	if raw := os.Getenv("PASS_METRICS_ADDR"); raw != "" {
		c.Server.MetricsAddr = raw
	}
}
