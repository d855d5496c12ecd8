/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/friendsincode/missionplan/internal/ccdsync"
	"github.com/friendsincode/missionplan/internal/config"
	"github.com/friendsincode/missionplan/internal/db"
	"github.com/friendsincode/missionplan/internal/eventbus"
	"github.com/friendsincode/missionplan/internal/events"
	"github.com/friendsincode/missionplan/internal/macro"
	"github.com/friendsincode/missionplan/internal/readout"
	"github.com/friendsincode/missionplan/internal/sequencer"
	"github.com/friendsincode/missionplan/internal/storage"
	"github.com/friendsincode/missionplan/internal/store"
	"github.com/friendsincode/missionplan/internal/telemetry"
	"github.com/friendsincode/missionplan/internal/version"
)

// runtime bundles the services a command needs. Optional parts are nil when
// not configured.
type runtime struct {
	tracer    *telemetry.TracerProvider
	bus       events.Publisher
	nats      *eventbus.NATSBus
	artifacts storage.ObjectStore
	store     *store.Store
	closeDB   func() error
}

func setupRuntime(ctx context.Context) (*runtime, error) {
	rt := &runtime{}

	tracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    "missionplan",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize tracer: %w", err)
	}
	rt.tracer = tracer

	local := events.NewBus()
	rt.bus = local
	if cfg.NATSURL != "" {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		nb, err := eventbus.NewNATSBus(natsCfg, local, logger)
		if err != nil {
			rt.close(ctx)
			return nil, err
		}
		rt.nats = nb
		rt.bus = nb
	}

	switch cfg.ArtifactBackend {
	case config.ArtifactS3:
		s3, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.ArtifactRoot,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			rt.close(ctx)
			return nil, err
		}
		rt.artifacts = s3
	default:
		rt.artifacts = storage.NewFilesystemStore(cfg.ArtifactRoot, logger)
	}

	if cfg.PersistenceEnabled() {
		database, err := db.Connect(cfg)
		if err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("connect database: %w", err)
		}
		rt.closeDB = func() error { return db.Close(database) }
		if err := db.Migrate(database); err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		rt.store = store.New(database, logger)
	}

	return rt, nil
}

// close releases everything and pushes the run's metrics.
func (rt *runtime) close(ctx context.Context) {
	if rt.nats != nil {
		if err := rt.nats.Close(); err != nil {
			logger.Warn().Err(err).Msg("close event bus")
		}
	}
	if rt.closeDB != nil {
		if err := rt.closeDB(); err != nil {
			logger.Warn().Err(err).Msg("close database")
		}
	}
	if rt.tracer != nil {
		if err := rt.tracer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}
	pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := telemetry.Push(pushCtx, cfg.PushgatewayURL, cfg.MetricsJobName); err != nil {
		logger.Warn().Err(err).Msg("metrics push failed")
	}
}

func (rt *runtime) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := rt.artifacts.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// synchronize computes the sensor settings of the mission, or nil when it has
// no sensors.
func synchronize(m *config.Mission) (*ccdsync.Settings, error) {
	calc := ccdsync.NewCalculator(readout.NewModel(m.Sensors.Timing), m.Sensors.Options)
	settings, err := calc.Synchronize(m.Sensors.CCDs)
	if errors.Is(err, ccdsync.ErrNoSensors) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("synchronize sensors: %w", err)
	}
	return &settings, nil
}

func newSequencer(m *config.Mission) (*sequencer.Sequencer, error) {
	sync, err := synchronize(m)
	if err != nil {
		return nil, err
	}
	return sequencer.New(macro.NewTable(m.Macros, sync), sequencer.Config{
		CommandSeparation:     m.CommandSeparation,
		PointingStabilization: m.PointingStabilization,
		Durations:             m.Durations(),
	}, logger), nil
}
