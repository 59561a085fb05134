package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketJobs = []byte("reminder_jobs")

// Job is a durable one-shot reminder job. Jobs survive a restart: any job
// still in the bucket when the scheduler starts is picked up by the same
// poll loop that fires freshly scheduled ones.
type Job struct {
	ID        string        `json:"id"`
	ContactID int64         `json:"contact_id"`
	Ordinal   int           `json:"ordinal"`
	FireAt    time.Time     `json:"fire_at"`
	Interval  time.Duration `json:"interval"`
}

// Callback is invoked exactly once when a job comes due
type Callback func(ctx context.Context, job *Job)

// Scheduler fires durable one-shot jobs at or after their fire time.
// It is an explicitly owned instance with a Start/Stop lifecycle; callers
// hold a reference rather than reaching for ambient global state.
type Scheduler struct {
	db           *bolt.DB
	callback     Callback
	pollInterval time.Duration
	logger       *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a scheduler persisting jobs in the given database
func New(db *bolt.DB, pollInterval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketJobs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jobs bucket: %w", err)
	}

	return &Scheduler{
		db:           db,
		pollInterval: pollInterval,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}, nil
}

// SetCallback sets the function invoked for each due job.
// Must be called before Start.
func (s *Scheduler) SetCallback(cb Callback) {
	s.callback = cb
}

// Schedule persists a job. Duplicate ids are not rejected; a job with the
// same id and fire time overwrites the previous one.
func (s *Scheduler) Schedule(job *Job) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		return tx.Bucket(bucketJobs).Put(makeJobKey(job.FireAt, job.ID), data)
	})
}

// Pending returns all jobs in fire-time order
func (s *Scheduler) Pending() ([]*Job, error) {
	var jobs []*Job

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketJobs).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				continue
			}
			jobs = append(jobs, &job)
		}
		return nil
	})

	return jobs, err
}

// Start starts the poll loop
func (s *Scheduler) Start(ctx context.Context) {
	pending, err := s.Pending()
	if err != nil {
		s.logger.Error("failed to read pending jobs", "error", err)
	} else if len(pending) > 0 {
		s.logger.Info("recovered pending reminder jobs", "count", len(pending))
	}

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop stops the scheduler and waits for the loop to finish
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

// fireDue pops every due job and invokes the callback for each.
// Jobs are removed before their callback runs, so a job fires at most once;
// callbacks run serialized on the scheduler loop.
func (s *Scheduler) fireDue(ctx context.Context) {
	var due []*Job
	now := time.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketJobs)
		c := bucket.Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			if parseJobKeyTime(k).After(now) {
				break
			}

			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				c.Delete()
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			due = append(due, &job)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to pop due jobs", "error", err)
		return
	}

	for _, job := range due {
		s.logger.Debug("firing reminder job",
			"job_id", job.ID,
			"contact_id", job.ContactID,
			"ordinal", job.Ordinal,
		)
		if s.callback != nil {
			s.callback(ctx, job)
		}
	}
}

// makeJobKey creates a sortable key from fire time and job id.
// Fixed-width nanosecond timestamps keep lexicographic order chronological.
func makeJobKey(t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d:%s", t.UnixNano(), id))
}

// parseJobKeyTime extracts the fire time from a job key
func parseJobKeyTime(key []byte) time.Time {
	s := string(key)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return time.Time{}
	}
	ns, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
