package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"dispenser-identity/internal/audit/domain"
)

const instrumentationName = "dispenser-identity/audit"

// recordEmitter is the part of otellog.Logger used by AuditEmitter.
type recordEmitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// AuditEmitter mirrors audit events as OTel log records. It implements audit.Publisher.
type AuditEmitter struct {
	logger recordEmitter
}

// NewAuditEmitter returns an emitter that writes through provider, or nil when provider is nil.
func NewAuditEmitter(provider *sdklog.LoggerProvider) *AuditEmitter {
	if provider == nil {
		return nil
	}
	return &AuditEmitter{logger: provider.Logger(instrumentationName)}
}

// NewAuditEmitterWithLogger returns an emitter backed by logger directly.
func NewAuditEmitterWithLogger(logger recordEmitter) *AuditEmitter {
	return &AuditEmitter{logger: logger}
}

// Publish converts entry to a log record: the action is the body, everything else an attribute.
func (e *AuditEmitter) Publish(ctx context.Context, entry *domain.AuditLog) error {
	if e == nil || e.logger == nil || entry == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := entry.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(entry.Action))
	rec.AddAttributes(
		otellog.String("audit.id", entry.ID),
		otellog.Int64("user_id", entry.UserID),
		otellog.String("resource", entry.Resource),
		otellog.String("client_ip", entry.IP),
	)
	if entry.Metadata != "" {
		rec.AddAttributes(otellog.String("metadata", entry.Metadata))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
