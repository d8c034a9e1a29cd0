package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docsink/internal/convert"
	"github.com/dgallion1/docsink/internal/diag"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusCompleted  JobStatus = "completed"
	// StatusPolicyFailed means the conversion finished but its diagnostics
	// tripped the fail policy. The output is still available.
	StatusPolicyFailed JobStatus = "policy_failed"
	StatusFailed       JobStatus = "failed"
)

// Done reports whether the job has reached a terminal status.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPolicyFailed || s == StatusFailed
}

// Job tracks the state of a single document conversion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	opts     convert.Options
	fileData []byte
	result   *convert.Result
	errors   []string
}

// NewJob returns a queued job converting data as filename with opts.
func NewJob(filename string, data []byte, opts convert.Options) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Filename:    filename,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		opts:        opts,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not been updated within the TTL.
// Queued and running jobs are kept.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Status.Done() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Options returns the conversion options of the job.
func (j *Job) Options() convert.Options {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.opts
}

// Finish stores the conversion result and releases the input bytes. A nil
// result with err marks the job failed.
func (j *Job) Finish(res *convert.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
	j.result = res
	j.Phase = "done"
	j.UpdatedAt = time.Now()

	switch {
	case res != nil && res.Failed():
		j.Status = StatusPolicyFailed
	case err != nil:
		j.Status = StatusFailed
		j.errors = append(j.errors, err.Error())
	default:
		j.Status = StatusCompleted
	}
}

// Result returns the conversion result, or nil while the job is running or
// when it failed without output.
func (j *Job) Result() *convert.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string        `json:"job_id"`
	Filename    string        `json:"filename"`
	Format      string        `json:"format"`
	Status      JobStatus     `json:"status"`
	Phase       string        `json:"phase"`
	ContentHash string        `json:"content_hash,omitempty"`
	Diagnostics []diag.Record `json:"diagnostics"`
	Failure     string        `json:"failure,omitempty"`
	Errors      []string      `json:"errors"`
	DurationMs  int64         `json:"duration_ms"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Format:      string(j.opts.Format),
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Diagnostics: []diag.Record{},
		Errors:      append([]string{}, j.errors...),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if snap.Format == "" {
		snap.Format = string(convert.FormatHTML)
	}
	if r := j.result; r != nil {
		snap.Diagnostics = append(snap.Diagnostics, r.Records...)
		snap.Failure = r.Failure
		snap.DurationMs = r.Duration.Milliseconds()
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
