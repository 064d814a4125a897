package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dispenser-identity/internal/audit/domain"
	auditrepo "dispenser-identity/internal/audit/repository"
)

// publishTimeout bounds a single asynchronous publish.
const publishTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after GracefulStop before closing publishers,
// so in-flight asynchronous publishes can finish.
const ShutdownDrainDuration = publishTimeout

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. Used by the session, linkage and account services.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID int64, action, resource, metadata string)
}

// Publisher forwards a persisted audit event to an external system (Kafka, OTel logs).
type Publisher interface {
	Publish(ctx context.Context, entry *domain.AuditLog) error
}

// Logger implements AuditLogger. Entries are written to the repository synchronously and then
// handed to every publisher in the background.
type Logger struct {
	repo        auditrepo.Repository
	publishers  []Publisher
	ipExtractor IPExtractor
	log         *slog.Logger
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// Either may be nil; a nil ipExtractor records the IP as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, publishers ...Publisher) *Logger {
	var ps []Publisher
	for _, p := range publishers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Logger{repo: repo, publishers: ps, ipExtractor: ipExtractor, log: slog.Default()}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID int64, action, resource, metadata string) {
	if l == nil || (l.repo == nil && len(l.publishers) == 0) {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if l.repo != nil {
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.ErrorContext(ctx, "audit: failed to log event",
				slog.String("action", action), slog.String("resource", resource), slog.Any("error", err))
		}
	}
	for _, p := range l.publishers {
		l.publishAsync(p, entry)
	}
}

// publishAsync runs Publish in a goroutine on a fresh context so request cancellation
// does not abort the publish.
func (l *Logger) publishAsync(p Publisher, entry *domain.AuditLog) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, entry); err != nil {
			l.log.Warn("audit: publish failed", slog.String("action", entry.Action), slog.Any("error", err))
		}
	}()
}

// Nop discards every event.
type Nop struct{}

func (Nop) LogEvent(context.Context, int64, string, string, string) {}
