package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/pkg/queue"
	"github.com/fjord-bootcamp/backend/pkg/storage"
)

// ErrTooLarge is returned when a downloaded avatar exceeds storage.MaxAvatarSize.
var ErrTooLarge = errors.New("avatar too large")

// Jobs is the queue the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Uploader stores avatar images.
type Uploader interface {
	UploadAvatar(ctx context.Context, userID int64, contentType string, body io.Reader) (string, error)
}

// AvatarStore records where a user's avatar is stored.
type AvatarStore interface {
	SetAvatarKey(ctx context.Context, userID int64, key string) error
}

// AvatarProcessor processes avatar import jobs: download from the source
// URL, upload to S3, store the key.
type AvatarProcessor struct {
	jobs    Jobs
	store   AvatarStore
	s3      Uploader
	client  *http.Client
	backoff time.Duration
	logger  *zap.Logger
}

// NewAvatarProcessor creates an avatar import processor.
func NewAvatarProcessor(jobs Jobs, store AvatarStore, s3 Uploader, client *http.Client, logger *zap.Logger) *AvatarProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = NewHTTPClient(30 * time.Second)
	}
	return &AvatarProcessor{jobs: jobs, store: store, s3: s3, client: client, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one avatar import job.
func (p *AvatarProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAvatarImport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AvatarImportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if err := checkScheme(req.URL.Scheme); err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status: %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !storage.ValidAvatarType(contentType) {
		return fmt.Errorf("unsupported avatar type %q", contentType)
	}
	if resp.ContentLength > storage.MaxAvatarSize {
		return ErrTooLarge
	}

	key, err := p.s3.UploadAvatar(ctx, payload.UserID, contentType, &limitedReader{r: resp.Body, left: storage.MaxAvatarSize})
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	if err := p.store.SetAvatarKey(ctx, payload.UserID, key); err != nil {
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("avatar import completed", zap.Int64("user_id", payload.UserID), zap.String("s3_key", key))
	return nil
}

// limitedReader fails with ErrTooLarge instead of truncating.
type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(b []byte) (int, error) {
	n, err := l.r.Read(b)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// Run starts the worker loop: dequeue, process, retry on error. It returns
// when ctx is done.
func (p *AvatarProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("avatar worker stopping")
			return
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("dequeue error", zap.Error(err))
				p.sleep(ctx)
			}
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *AvatarProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
