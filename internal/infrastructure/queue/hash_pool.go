package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/infrastructure/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

type hashResult struct {
	hash string
	err  error
}

type hashJob struct {
	ctx    context.Context
	op     string
	run    func() (string, error)
	result chan hashResult
}

// HashPool runs bcrypt on a fixed set of workers so that concurrent signups
// and logins cannot exhaust CPU. It implements ports.PasswordHasher.
type HashPool struct {
	jobs chan hashJob
	cost int
	n    int
	log  zerolog.Logger
}

// NewHashPool creates a HashPool with numWorkers workers hashing at the given
// bcrypt cost. Out-of-range values fall back to defaults.
func NewHashPool(numWorkers, cost int, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &HashPool{
		jobs: make(chan hashJob, channelBuffer),
		cost: cost,
		n:    numWorkers,
		log:  log,
	}
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled.
func (p *HashPool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		go p.runWorker(ctx, i)
	}
}

// Hash returns the bcrypt hash of plaintext. Input longer than bcrypt accepts
// is rejected as a *domain.ValidationError on the password field.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", &domain.ValidationError{Fields: []domain.FieldError{{
			Field:  "password",
			Value:  "[redacted]",
			Reason: fmt.Sprintf("size must be at most %d bytes", maxPasswordBytes),
		}}}
	}
	return p.submit(ctx, "hash", func() (string, error) {
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(b), nil
	})
}

// Compare returns domain.ErrInvalidCredentials when plaintext does not match hash.
func (p *HashPool) Compare(ctx context.Context, hash, plaintext string) error {
	// No stored hash can come from an over-long password.
	if len(plaintext) > maxPasswordBytes {
		return domain.ErrInvalidCredentials
	}
	_, err := p.submit(ctx, "compare", func() (string, error) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", domain.ErrInvalidCredentials
		}
		if err != nil {
			return "", fmt.Errorf("compare password: %w", err)
		}
		return "", nil
	})
	return err
}

// submit enqueues a job and waits for its result or for ctx to end.
func (p *HashPool) submit(ctx context.Context, op string, run func() (string, error)) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	job := hashJob{ctx: ctx, op: op, run: run, result: make(chan hashResult, 1)}
	metrics.HashQueueDepth.Inc()
	select {
	case p.jobs <- job:
	case <-ctx.Done():
		metrics.HashQueueDepth.Dec()
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	}

	select {
	case res := <-job.result:
		return res.hash, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (p *HashPool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			metrics.HashQueueDepth.Dec()
			// Caller already gave up; skip the bcrypt work.
			if job.ctx.Err() != nil {
				p.log.Debug().Int("worker_id", id).Str("op", job.op).Msg("hash job abandoned")
				continue
			}
			hash, err := job.run()
			job.result <- hashResult{hash: hash, err: err}
		}
	}
}
