package provisioning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const (
	// MaxRows bounds a single bulk invite request.
	MaxRows = 100

	// BatchSize is the number of identities created per batch. Batches run
	// strictly one after another with a pause in between to respect the
	// provider's rate limit.
	BatchSize = 10

	// DefaultBatchDelay is the pause between consecutive batches.
	DefaultBatchDelay = 1 * time.Second

	// DefaultBatchConcurrency bounds parallel creations inside one batch.
	DefaultBatchConcurrency = 5
)

// Row is one line of a bulk invite request.
type Row struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Summary gives the validation breakdown of a bulk run.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// Result is the per-row accounting of a bulk run. Created+Failed always
// equals Summary.Total: no row is silently dropped.
type Result struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
	Summary Summary  `json:"summary"`

	mu sync.Mutex
}

// Bulk validates, deduplicates, and rate-limit-batches provisioning
// requests around the single-row Invite primitive.
type Bulk struct {
	service *Service

	batchSize   int
	batchDelay  time.Duration
	concurrency int64

	// sleep is injectable so tests can run without real delays.
	sleep func(ctx context.Context, d time.Duration) error

	log *logrus.Entry
}

// NewBulk creates a bulk provisioner with default batching parameters.
func NewBulk(service *Service) *Bulk {
	return &Bulk{
		service:     service,
		batchSize:   BatchSize,
		batchDelay:  DefaultBatchDelay,
		concurrency: DefaultBatchConcurrency,
		sleep:       sleepContext,
		log:         logrus.WithField("component", "bulk-provisioning"),
	}
}

// rowOutcome is the per-row processing state carried through the phases.
type rowOutcome struct {
	index int
	row   Row
	err   error
}

// Run executes a bulk invite for the actor. Each row succeeds or fails
// independently; one row's provider error never aborts its siblings. When
// ctx is cancelled mid-run, already-created identities are NOT rolled back:
// the partial progress is reported and the unprocessed rows are counted as
// failed.
func (b *Bulk) Run(ctx context.Context, actorRoleID string, rows []Row) (*Result, error) {
	ctx, span := b.service.tracer.Start(ctx, "provisioning.bulk",
		trace.WithAttributes(attribute.Int("rows", len(rows))))
	defer span.End()

	if len(rows) > MaxRows {
		return nil, ErrTooManyRows
	}

	result := &Result{Summary: Summary{Total: len(rows)}}

	// Phase 1: per-row validation. Invalid rows are excluded and recorded;
	// valid rows proceed to the provider phases.
	var pending []*rowOutcome
	for i := range rows {
		outcome := &rowOutcome{index: i, row: rows[i]}
		outcome.err = b.validateRow(actorRoleID, &outcome.row)
		if outcome.err != nil {
			result.fail(outcome)
			continue
		}
		pending = append(pending, outcome)
	}
	result.Summary.Valid = len(pending)
	result.Summary.Invalid = result.Summary.Total - result.Summary.Valid

	// Phase 2: deduplicate against the provider. Pre-existing emails are
	// failures, not retries.
	pending = b.dedupe(ctx, pending, result)

	// Phase 3: batched creation with bounded intra-batch parallelism and a
	// fixed pause between batches.
	for start := 0; start < len(pending); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			for _, outcome := range pending[start:] {
				outcome.err = fmt.Errorf("cancelled before creation: %w", err)
				result.fail(outcome)
			}
			break
		}

		if start > 0 {
			if err := b.sleep(ctx, b.batchDelay); err != nil {
				for _, outcome := range pending[start:] {
					outcome.err = fmt.Errorf("cancelled before creation: %w", err)
					result.fail(outcome)
				}
				break
			}
		}

		end := start + b.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		b.createBatch(ctx, actorRoleID, pending[start:end], result)
	}

	b.log.WithFields(logrus.Fields{
		"total":   result.Summary.Total,
		"created": result.Created,
		"failed":  result.Failed,
	}).Info("bulk invite finished")

	return result, nil
}

func (b *Bulk) validateRow(actorRoleID string, row *Row) error {
	req := InviteRequest{
		Email:     row.Email,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		RoleID:    row.Role,
	}
	if err := validateInvite(&req); err != nil {
		return err
	}
	row.Email = req.Email

	if _, ok := b.service.engine.Registry().Get(row.Role); !ok {
		return &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", row.Role)}
	}
	if !b.service.engine.CanInviteRoleID(actorRoleID, row.Role) {
		return ErrPermissionDenied
	}
	return nil
}

func (b *Bulk) dedupe(ctx context.Context, pending []*rowOutcome, result *Result) []*rowOutcome {
	surviving := pending[:0]
	for _, outcome := range pending {
		existing, err := b.service.provider.FindByEmail(ctx, outcome.row.Email)
		if err != nil {
			outcome.err = &ProviderError{Op: "find", Err: err}
			result.fail(outcome)
			continue
		}
		if existing != nil {
			outcome.err = ErrDuplicateEmail
			result.fail(outcome)
			continue
		}
		surviving = append(surviving, outcome)
	}
	return surviving
}

// createBatch creates the batch's rows with at most b.concurrency calls in
// flight. Outcomes land in each row's slot, so no locking is needed beyond
// the result accumulator.
func (b *Bulk) createBatch(ctx context.Context, actorRoleID string, batch []*rowOutcome, result *Result) {
	sem := semaphore.NewWeighted(b.concurrency)
	var wg sync.WaitGroup

	for _, outcome := range batch {
		if err := sem.Acquire(ctx, 1); err != nil {
			outcome.err = fmt.Errorf("cancelled before creation: %w", err)
			continue
		}

		wg.Add(1)
		go func(outcome *rowOutcome) {
			defer wg.Done()
			defer sem.Release(1)

			_, err := b.service.Invite(ctx, actorRoleID, InviteRequest{
				Email:     outcome.row.Email,
				FirstName: outcome.row.FirstName,
				LastName:  outcome.row.LastName,
				RoleID:    outcome.row.Role,
			})
			outcome.err = err
		}(outcome)
	}
	wg.Wait()

	result.mu.Lock()
	defer result.mu.Unlock()
	for _, outcome := range batch {
		if outcome.err != nil {
			result.failLocked(outcome)
		} else {
			result.Created++
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail records a failed row in the result.
func (r *Result) fail(outcome *rowOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failLocked(outcome)
}

func (r *Result) failLocked(outcome *rowOutcome) {
	r.Failed++
	r.Errors = append(r.Errors,
		fmt.Sprintf("row %d (%s): %v", outcome.index+1, outcome.row.Email, outcome.err))
}
