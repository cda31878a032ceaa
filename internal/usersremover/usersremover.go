// Package usersremover deletes users in the background. Identifiers are
// queued by EnqueueJob and removed from storage in batches on a fixed interval.
package usersremover

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patric-chuzhbe/instabackend/internal/logger"
	"github.com/patric-chuzhbe/instabackend/internal/models"
)

type storage interface {
	RemoveMany(ids []models.UserID) int
}

// ErrStopped is returned by EnqueueJob once the remover has begun shutting down.
var ErrStopped = errors.New("users remover is stopped")

// UsersRemover batches queued user ids and removes them from storage.
type UsersRemover struct {
	queue                    chan models.UserID
	db                       storage
	delayBetweenQueueFetches time.Duration

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
	stopping chan struct{}
	done     chan struct{}
}

// New creates a remover with a queue of channelCapacity ids that is
// flushed every delayBetweenQueueFetches once Run is called.
func New(
	db storage,
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
) *UsersRemover {
	return &UsersRemover{
		db:                       db,
		queue:                    make(chan models.UserID, channelCapacity),
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		stopping:                 make(chan struct{}),
		done:                     make(chan struct{}),
	}
}

// Run starts the background loop. When ctx is cancelled new jobs are
// refused, the queue is drained until every running EnqueueJob call has
// returned, one last batch is removed and Done is closed.
func (r *UsersRemover) Run(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.delayBetweenQueueFetches)
		defer ticker.Stop()

		var pending []models.UserID

		for {
			select {
			case id := <-r.queue:
				pending = append(pending, id)
			case <-ticker.C:
				pending = r.flush(pending)
			case <-ctx.Done():
				r.flush(r.shutdown(pending))
				return
			}
		}
	}()
}

// Done is closed after Run has performed its final flush.
func (r *UsersRemover) Done() <-chan struct{} {
	return r.done
}

// EnqueueJob queues every id of the job. It blocks while the queue is full.
// Ids queued before ErrStopped is returned are still removed.
func (r *UsersRemover) EnqueueJob(ctx context.Context, job *models.UserDeleteJob) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrStopped
	}
	r.inflight.Add(1)
	r.mu.Unlock()
	defer r.inflight.Done()

	for _, id := range job.UsersToDelete {
		select {
		case r.queue <- id:
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopping:
			return ErrStopped
		}
	}

	return nil
}

func (r *UsersRemover) shutdown(pending []models.UserID) []models.UserID {
	r.mu.Lock()
	r.stopped = true
	close(r.stopping)
	r.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(idle)
	}()

	for {
		select {
		case id := <-r.queue:
			pending = append(pending, id)
		case <-idle:
			return r.drain(pending)
		}
	}
}

func (r *UsersRemover) drain(pending []models.UserID) []models.UserID {
	for {
		select {
		case id := <-r.queue:
			pending = append(pending, id)
		default:
			return pending
		}
	}
}

func (r *UsersRemover) flush(pending []models.UserID) []models.UserID {
	if len(pending) == 0 {
		return pending
	}

	removed := r.db.RemoveMany(pending)
	logger.Log.Infof("processed removing of %d users, %d of them existed", len(pending), removed)

	return pending[:0]
}
