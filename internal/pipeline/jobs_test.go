package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docsink/internal/config"
	"github.com/dgallion1/docsink/internal/convert"
	"github.com/dgallion1/docsink/internal/diag"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob("a.md", []byte("x"), convert.Options{})
	b := NewJob("a.md", []byte("x"), convert.Options{})

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, a.Status)
	}
	if a.ContentHash != ContentHashHex([]byte("x")) {
		t.Errorf("unexpected content hash %q", a.ContentHash)
	}
	if string(a.FileData()) != "x" {
		t.Errorf("expected file data %q, got %q", "x", a.FileData())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("doc.md", nil, convert.Options{})

	before := job.UpdatedAt
	time.Sleep(time.Millisecond)
	job.SetStatus(StatusConverting, "converting")

	if job.Status != StatusConverting {
		t.Errorf("expected status %q, got %q", StatusConverting, job.Status)
	}
	if !job.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance after SetStatus")
	}
	if job.Status.Done() {
		t.Error("converting must not be terminal")
	}
}

func TestJob_FinishOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		policy diag.Policy
		src    string
		want   JobStatus
	}{
		{"clean", diag.Policy{}, "# Title\n\nBody\n", StatusCompleted},
		{"warning without policy", diag.Policy{}, "<div>x</div>\n", StatusCompleted},
		{"policy tripped", diag.Policy{Severity: diag.SeverityWarn}, "<div>x</div>\n", StatusPolicyFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewJob("doc.md", []byte(tt.src), convert.Options{Policy: tt.policy})
			NewWorker(discardLogger(), nil).Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != tt.want {
				t.Fatalf("expected status %q, got %q (errors %v)", tt.want, snap.Status, snap.Errors)
			}
			if job.Result() == nil || len(job.Result().Output) == 0 {
				t.Error("expected rendered output")
			}
			if job.FileData() != nil {
				t.Error("expected input bytes to be released")
			}
		})
	}
}

func TestJob_FinishError(t *testing.T) {
	job := NewJob("doc.adoc", []byte("x"), convert.Options{})
	NewWorker(discardLogger(), nil).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], "unsupported") {
		t.Errorf("unexpected errors %v", snap.Errors)
	}
	if job.Result() != nil {
		t.Error("expected no result")
	}
}

func TestJob_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob("doc.md", []byte("x"), convert.Options{})
	NewWorker(discardLogger(), nil).Process(ctx, job)

	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Snapshot().Status)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	job := NewJob("snap.md", nil, convert.Options{})
	snap := job.Snapshot()
	if snap.Errors == nil || snap.Diagnostics == nil {
		t.Error("expected non-nil slices in snapshot")
	}
	if snap.Format != "html" {
		t.Errorf("expected default format html, got %q", snap.Format)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("a.md", nil, convert.Options{})
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob("old.md", nil, convert.Options{})
	expired.Finish(nil, errors.New("boom"))
	store.Put(expired)

	queued := NewJob("queued.md", nil, convert.Options{})
	store.Put(queued)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := NewJob("new.md", nil, convert.Options{})
	fresh.Finish(nil, errors.New("boom"))
	store.Put(fresh)

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 eviction, got %d", n)
	}
	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(queued.ID) == nil {
		t.Error("expected queued job to survive cleanup")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 10, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	var jobs []*Job
	for _, src := range []string{"# One\n", "# Two\n", "# Three\n"} {
		job := NewJob("doc.md", []byte(src), convert.Options{})
		if err := o.Submit(job); err != nil {
			t.Fatalf("submit: %v", err)
		}
		jobs = append(jobs, job)
	}

	deadline := time.Now().Add(5 * time.Second)
	for _, job := range jobs {
		for !o.GetJob(job.ID).Snapshot().Status.Done() {
			if time.Now().After(deadline) {
				t.Fatalf("job %s did not finish", job.ID)
			}
			time.Sleep(5 * time.Millisecond)
		}
		if s := job.Snapshot().Status; s != StatusCompleted {
			t.Errorf("expected status %q, got %q", StatusCompleted, s)
		}
	}
	if got := o.Stats().Snapshot().Count; got != 3 {
		t.Errorf("expected 3 observed conversions, got %d", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started: nothing drains the queue.
	o := NewOrchestrator(config.Config{MaxQueueSize: 1}, discardLogger())

	if err := o.Submit(NewJob("a.md", nil, convert.Options{})); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	overflow := NewJob("b.md", nil, convert.Options{})
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if overflow.Snapshot().Status != StatusFailed {
		t.Errorf("expected overflow job to fail, got %q", overflow.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}

	o.Stop()
	if err := o.Submit(NewJob("c.md", nil, convert.Options{})); err == nil {
		t.Error("expected submit after stop to fail")
	}
}
