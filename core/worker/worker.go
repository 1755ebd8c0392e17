package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/core/storage"

	"github.com/gosimple/slug"
	"github.com/hibiken/asynq"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// WebhookArchivePayload is the task body for archiving a verified webhook
// delivery. The raw bytes are kept exactly as received.
type WebhookArchivePayload struct {
	Type       string    `json:"type"`
	ReceivedAt time.Time `json:"received_at"`
	Body       []byte    `json:"body"`
}

// Enqueuer hands verified webhook deliveries to the background archive queue.
type Enqueuer interface {
	EnqueueWebhookArchive(ctx context.Context, notificationType string, rawBody []byte) error
	Close() error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) asynqOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

type enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(cfg RedisConfig) Enqueuer {
	return &enqueuer{client: asynq.NewClient(cfg.asynqOpt())}
}

func (e *enqueuer) EnqueueWebhookArchive(ctx context.Context, notificationType string, rawBody []byte) error {
	payload, err := json.Marshal(WebhookArchivePayload{
		Type:       notificationType,
		ReceivedAt: time.Now().UTC(),
		Body:       rawBody,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(constants.TaskWebhookArchive, payload)
	_, err = e.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(constants.ProviderTimeout))
	return err
}

func (e *enqueuer) Close() error {
	return e.client.Close()
}

// Server consumes the archive queue and writes deliveries to object storage.
type Server struct {
	srv      *asynq.Server
	mux      *asynq.ServeMux
	uploader storage.Uploader
}

func NewServer(cfg RedisConfig, uploader storage.Uploader) *Server {
	srv := asynq.NewServer(cfg.asynqOpt(), asynq.Config{
		Concurrency: 2,
		Logger:      asynqLogger{},
	})

	s := &Server{
		srv:      srv,
		mux:      asynq.NewServeMux(),
		uploader: uploader,
	}
	s.mux.HandleFunc(constants.TaskWebhookArchive, s.handleWebhookArchive)
	return s
}

// Start runs the worker in the background. Failures surface through the
// returned channel so the caller can decide whether to keep serving HTTP.
func (s *Server) Start() {
	go func() {
		if err := s.srv.Run(s.mux); err != nil {
			logger.Error("Worker:Run:Error", "error", err)
		}
	}()
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

func (s *Server) handleWebhookArchive(ctx context.Context, t *asynq.Task) error {
	var payload WebhookArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed task, retrying will not help
		logger.Error("Worker:WebhookArchive:BadPayload", "error", err)
		return nil
	}

	key := archiveKey(payload.Type, payload.ReceivedAt)
	if err := s.uploader.Put(ctx, key, payload.Body, "application/json"); err != nil {
		logger.Error("Worker:WebhookArchive:Upload:Error", "error", err, "key", key)
		return err
	}

	logger.Info("Worker:WebhookArchive:Stored", "key", key, "bytes", len(payload.Body))
	return nil
}

func archiveKey(notificationType string, receivedAt time.Time) string {
	prefix := slug.Make(notificationType)
	if prefix == "" {
		prefix = "unknown"
	}
	suffix, _ := gonanoid.New(10)
	return fmt.Sprintf("webhooks/%s/%s/%s.json", prefix, receivedAt.Format("2006-01-02"), suffix)
}

// asynqLogger adapts asynq's logging to the service logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...any) { logger.Debug(fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...any)  { logger.Info(fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...any)  { logger.Warn(fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...any) { logger.Error(fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...any) { logger.Error(fmt.Sprint(args...)) }
