package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/pkg/config"
	"github.com/globlecampus/campus-api/pkg/jobs"
	"github.com/globlecampus/campus-api/pkg/mailer"
)

const jobTypeEmail = "email"

// MailService pushes outbound email through the in-process job queue so
// HTTP handlers never block on SMTP round trips.
type MailService struct {
	sender  mailer.Sender
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger

	adminInbox string
	siteURL    string
	configured bool
}

// MailDeps wires the mail service dependencies.
type MailDeps struct {
	Sender     mailer.Sender
	Queue      config.MailQueueConfig
	AdminInbox string
	SiteURL    string
	Configured bool
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// NewMailService constructs the dispatcher and its worker queue.
func NewMailService(deps MailDeps) *MailService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &MailService{
		sender:     deps.Sender,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		adminInbox: deps.AdminInbox,
		siteURL:    deps.SiteURL,
		configured: deps.Configured,
	}
	s.queue = jobs.NewQueue("mail", s.handle, jobs.QueueConfig{
		Workers:    deps.Queue.Workers,
		MaxRetries: deps.Queue.MaxRetries,
		RetryDelay: deps.Queue.RetryDelay,
		OnExhausted: func(jobs.Job, error) {
			s.metrics.RecordMailFailed()
		},
		Logger: deps.Logger,
	})
	return s
}

// Start begins queue consumption.
func (s *MailService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *MailService) Stop() {
	s.queue.Stop()
}

// Configured reports whether SMTP credentials are present.
func (s *MailService) Configured() bool {
	return s.configured
}

// SiteURL exposes the public site link used in email bodies.
func (s *MailService) SiteURL() string {
	return s.siteURL
}

// Enqueue schedules a rendered message for delivery.
func (s *MailService) Enqueue(msg mailer.Message) error {
	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeEmail,
		Payload: msg,
	}); err != nil {
		return err
	}
	s.metrics.RecordMailQueued()
	return nil
}

// EnqueueToAdmin schedules a message addressed to the admin inbox.
func (s *MailService) EnqueueToAdmin(subject, html string) error {
	return s.Enqueue(mailer.Message{To: s.adminInbox, Subject: subject, HTML: html})
}

func (s *MailService) handle(_ context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("unexpected mail payload %T", job.Payload)
	}
	if err := s.sender.Send(msg); err != nil {
		return err
	}
	s.logger.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
