package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
)

const (
	ActionCreateUser    = "create_user"
	ActionEditUser      = "edit_user"
	ActionDeleteUser    = "delete_user"
	ActionCreateURL     = "create_url"
	ActionEditURL       = "edit_url"
	ActionDeleteURL     = "delete_url"
	ActionResetPassword = "reset_password"
)

const auditWriteTimeout = 5 * time.Second

// Actor is the caller of a service operation. The zero value is anonymous.
type Actor struct {
	UserID uint
	Email  string
	Role   string
	IP     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// String is the identity snapshot stored with audit entries.
func (a Actor) String() string {
	if a.UserID == 0 {
		return "anon"
	}
	return fmt.Sprintf("%s (id:%d)", a.Email, a.UserID)
}

type AuditService struct {
	repo    repository.AuditLogRepository
	logger  *slog.Logger
	metrics *observability.Prom
	queue   chan models.AuditLog
	now     func() time.Time

	mu      sync.RWMutex
	stopped bool
}

func NewAuditService(repo repository.AuditLogRepository, logger *slog.Logger, queueSize int, metrics *observability.Prom) *AuditService {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &AuditService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan models.AuditLog, queueSize),
		now:     time.Now,
	}
}

// Start persists queued entries until ctx is done, then drains what is left.
// Entries recorded after that are written inline.
func (s *AuditService) Start(ctx context.Context) {
	for {
		select {
		case entry := <-s.queue:
			s.write(context.Background(), entry)
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.drain()
			return
		}
	}
}

func (s *AuditService) drain() {
	for {
		select {
		case entry := <-s.queue:
			s.write(context.Background(), entry)
		default:
			s.metrics.SetAuditQueued(0)
			return
		}
	}
}

// Record queues an audit entry for the actor. The client IP is taken from
// the actor. When the queue is full or the worker has stopped the entry is
// written synchronously.
// Failures are logged and never returned.
func (s *AuditService) Record(ctx context.Context, actor Actor, action string, details any) {
	detailBytes, err := json.Marshal(details)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to encode audit details", "action", action, "error", err)
		detailBytes = []byte("{}")
	}

	entry := models.AuditLog{
		Timestamp: s.now().UTC(),
		User:      actor.String(),
		Action:    action,
		Details:   string(detailBytes),
		IP:        actor.IP,
	}

	if s.enqueue(entry) {
		s.metrics.SetAuditQueued(len(s.queue))
		return
	}
	s.logger.WarnContext(ctx, "Audit worker unavailable, writing inline", "action", action)
	s.write(context.WithoutCancel(ctx), entry)
}

// enqueue hands entry to the worker. It fails when the queue is full or the
// worker has stopped.
func (s *AuditService) enqueue(entry models.AuditLog) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return false
	}
	select {
	case s.queue <- entry:
		return true
	default:
		return false
	}
}

func (s *AuditService) write(ctx context.Context, entry models.AuditLog) {
	ctx, cancel := context.WithTimeout(ctx, auditWriteTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, &entry); err != nil {
		s.metrics.IncAuditFailure()
		s.logger.ErrorContext(ctx, "Failed to write audit log",
			"action", entry.Action,
			"user", entry.User,
			"details", entry.Details,
			"error", err,
		)
	}
}

func (s *AuditService) Query(ctx context.Context, filter repository.AuditFilter) ([]models.AuditLog, int64, error) {
	logs, total, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, 0, mapRepoError(err, "")
	}
	return logs, total, nil
}
