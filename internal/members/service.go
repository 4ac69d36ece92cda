// Package members is the single path for every member read and write. Each
// operation goes to the webhook first and degrades to the local store when
// the webhook fails; the result says which path was taken.
package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"memberhub/internal/analytics"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/models"
	"memberhub/internal/store"
	"memberhub/internal/webhook"

	"github.com/google/uuid"
)

type Path string

const (
	PathRemoteConfirmed Path = "remote_confirmed"
	PathLocalFallback   Path = "local_fallback"

	// pathFailed is only written to the sync log, for calls with no local
	// fallback such as PING.
	pathFailed = "failed"

	LevelWarning = "warning"
	LevelInfo    = "info"
)

var ErrRejected = errors.New("webhook rejected the request")

// Outcome reports how an operation completed. RemoteErr is set for fallbacks.
type Outcome struct {
	Path      Path   `json:"path"`
	Warning   string `json:"warning,omitempty"`
	RemoteErr error  `json:"-"`
}

func (o Outcome) Confirmed() bool {
	return o.Path == PathRemoteConfirmed
}

// Remote is the webhook client as seen by the service.
type Remote interface {
	Call(ctx context.Context, action webhook.Action, data interface{}) (*webhook.Response, error)
	Ping(ctx context.Context) error
}

// Notifier receives non-blocking user notices.
type Notifier interface {
	Notify(level, message string)
}

type Service struct {
	remote      Remote
	store       *store.Store
	notifier    Notifier
	log         *slog.Logger
	concurrency int
	newID       func() models.ID
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithConcurrency bounds parallel detail fetches.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewService(remote Remote, st *store.Store, opts ...Option) *Service {
	s := &Service{
		remote:      remote,
		store:       st,
		log:         logger.Discard(),
		concurrency: 4,
		newID:       LocalID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "members"))
	return s
}

// LocalID generates the id of a member that only exists locally.
func LocalID() models.ID {
	return models.ID("local-" + uuid.NewString())
}

func (s *Service) Store() *store.Store {
	return s.store
}

// List returns the local collection, optionally filtered by a search query.
func (s *Service) List(ctx context.Context, query string) ([]models.Member, error) {
	members, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Search(members, query), nil
}

// Ping checks webhook connectivity.
func (s *Service) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.remote.Ping(ctx)
	path := PathRemoteConfirmed
	if err != nil {
		path = pathFailed
	}
	s.record(ctx, webhook.ActionPing, path, err, start)
	return err
}

// call performs one webhook round trip, treating success:false as failure,
// and writes the sync log entry. The returned path is the one the caller
// must take.
func (s *Service) call(ctx context.Context, action webhook.Action, data interface{}) (*webhook.Response, Outcome) {
	start := time.Now()
	resp, err := s.remote.Call(ctx, action, data)
	if err == nil && !resp.Success {
		err = fmt.Errorf("%s: %w", action, rejection(resp))
	}

	if err != nil {
		s.record(ctx, action, PathLocalFallback, err, start)
		s.log.Warn("webhook call failed, using local state",
			slog.String("action", string(action)),
			sl.Err(err),
		)
		return nil, Outcome{Path: PathLocalFallback, RemoteErr: err}
	}

	s.record(ctx, action, PathRemoteConfirmed, nil, start)
	return resp, Outcome{Path: PathRemoteConfirmed}
}

func rejection(resp *webhook.Response) error {
	if resp.Message != "" {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	return ErrRejected
}

// warn attaches a user-facing warning to a fallback outcome and pushes it
// to the notifier.
func (s *Service) warn(o *Outcome, message string) {
	if o.RemoteErr != nil {
		message = fmt.Sprintf("%s (%v)", message, o.RemoteErr)
	}
	o.Warning = message
	if s.notifier != nil {
		s.notifier.Notify(LevelWarning, message)
	}
}

func (s *Service) record(ctx context.Context, action webhook.Action, path Path, err error, start time.Time) {
	entry := &models.SyncLog{
		Action:     string(action),
		Path:       string(path),
		Success:    err == nil,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	// The sync log must be written even when the caller's context is done.
	if logErr := s.store.LogSync(context.WithoutCancel(ctx), entry); logErr != nil {
		s.log.Error("failed to write sync log", sl.Err(logErr))
	}
}
