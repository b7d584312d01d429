// Package telemetry provides OpenTelemetry tracing and metrics for the
// sync layer.
//
// Tracing:
//
//	tp, err := telemetry.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := telemetry.StartSpan(ctx, "sync.replay")
//	defer span.End()
//
// Metrics:
//
//	mp, err := telemetry.InitMeter(ctx, cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := telemetry.NewMetrics(telemetry.Meter("carebridge"))
//
// Metrics implements the coordinator's Recorder interface; its observer
// methods plug into the offline queue and conflict resolver hooks:
//
//	coordinator.New(coordinator.WithRecorder(metrics))
//	offline.NewQueue(cfg, offline.WithDepthObserver(metrics.QueueDepthObserver()))
//	conflict.NewResolver(cfg, conflict.WithOpenObserver(metrics.OpenConflictObserver()))
//
// Both init functions return nil providers when telemetry is disabled,
// leaving the global no-op providers in place.
package telemetry
