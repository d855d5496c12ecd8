/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// ArtifactBackend selects where timeline and command artifacts are written.
type ArtifactBackend string

const (
	ArtifactFilesystem ArtifactBackend = "fs"
	ArtifactS3         ArtifactBackend = "s3"
)

// Config covers process level configuration read from environment variables.
// Mission content lives in a separate YAML file, see LoadMission.
type Config struct {
	Environment string
	DBBackend   DatabaseBackend
	DBDSN       string // empty disables run persistence

	ArtifactBackend ArtifactBackend
	ArtifactRoot    string // directory for fs, key prefix for s3

	// S3 Object Storage configuration
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3UsePathStyle    bool   // Required for MinIO

	Workers        int    // overrides the mission worker count when > 0
	NATSURL        string // empty keeps events in-process
	PushgatewayURL string
	MetricsJobName string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"MISSIONPLAN_ENV"}, "development"),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"MISSIONPLAN_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:       getEnvAny([]string{"MISSIONPLAN_DB_DSN"}, ""),

		ArtifactBackend: ArtifactBackend(getEnvAny([]string{"MISSIONPLAN_ARTIFACT_BACKEND"}, string(ArtifactFilesystem))),
		ArtifactRoot:    getEnvAny([]string{"MISSIONPLAN_ARTIFACT_ROOT"}, "./runs"),

		S3AccessKeyID:     getEnvAny([]string{"MISSIONPLAN_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"MISSIONPLAN_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"MISSIONPLAN_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"MISSIONPLAN_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"MISSIONPLAN_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"MISSIONPLAN_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		Workers:        getEnvIntAny([]string{"MISSIONPLAN_WORKERS"}, 0),
		NATSURL:        getEnvAny([]string{"MISSIONPLAN_NATS_URL", "NATS_URL"}, ""),
		PushgatewayURL: getEnvAny([]string{"MISSIONPLAN_PUSHGATEWAY_URL"}, ""),
		MetricsJobName: getEnvAny([]string{"MISSIONPLAN_METRICS_JOB"}, "missionplan"),

		TracingEnabled:    getEnvBoolAny([]string{"MISSIONPLAN_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"MISSIONPLAN_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"MISSIONPLAN_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	switch cfg.ArtifactBackend {
	case ArtifactFilesystem:
	case ArtifactS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("MISSIONPLAN_S3_BUCKET must be provided for the s3 artifact backend")
		}
	default:
		return nil, fmt.Errorf("unsupported artifact backend %q", cfg.ArtifactBackend)
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.DBDSN == "" {
		return nil, fmt.Errorf("MISSIONPLAN_DB_DSN must be provided in production")
	}

	return cfg, nil
}

// PersistenceEnabled reports whether plan runs are recorded in a database.
func (c *Config) PersistenceEnabled() bool {
	return c != nil && c.DBDSN != ""
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
