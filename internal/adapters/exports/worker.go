// Package exports renders recipe collections to downloadable artifacts
// through an asynchronous worker.
package exports

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pantrycore/pkg/domain"
)

// Format names a supported artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures a stored export artifact. ID is the artifact identity
// (a UUID); Key is where the payload lives in the object store.
type Artifact struct {
	ID          string    `json:"id"`
	Key         string    `json:"key,omitempty"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

// Input is an enqueue request. Empty Formats defaults to JSON and CSV.
type Input struct {
	Formats     []Format
	RequestedBy string
}

// RecipeSource is the read surface the worker needs from the recipe store.
type RecipeSource interface {
	ListRecipes() []domain.Recipe
}

// AuditEntry records an export lifecycle event.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	ExportID   string    `json:"export_id"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// Worker executes recipe exports asynchronously off an in-process queue.
type Worker struct {
	source RecipeSource
	store  ObjectStore
	audit  AuditLogger

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker over the given recipe source.
func NewWorker(source RecipeSource, store ObjectStore, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan string, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing queued exports.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the loop to drain.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules an export and returns the queued record snapshot.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.source == nil {
		return Record{}, fmt.Errorf("export source not configured")
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	seen := make(map[Format]struct{}, len(formats))
	uniq := make([]Format, 0, len(formats))
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		if format != FormatJSON && format != FormatCSV {
			return Record{}, fmt.Errorf("unsupported export format %s", format)
		}
		seen[format] = struct{}{}
		uniq = append(uniq, format)
	}

	now := time.Now().UTC()
	record := Record{
		ID:          uuid.NewString(),
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: strings.TrimSpace(input.RequestedBy),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, record.ID, StatusQueued, "")

	select {
	case w.queue <- record.ID:
	default:
		w.fail(record.ID, "export queue full")
		failed, _ := w.Get(record.ID)
		return failed, fmt.Errorf("export queue full")
	}
	return snapshot, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	w.setStatus(id, StatusRunning, "")

	record, ok := w.Get(id)
	if !ok {
		return
	}
	recipes := w.source.ListRecipes()

	artifacts := make([]Artifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		payload, contentType, err := render(format, recipes)
		if err != nil {
			w.fail(id, err.Error())
			return
		}
		artifact := Artifact{
			ID:          uuid.NewString(),
			Format:      format,
			ContentType: contentType,
			SizeBytes:   int64(len(payload)),
			CreatedAt:   time.Now().UTC(),
		}
		if w.store != nil {
			key := fmt.Sprintf("exports/%s/recipes.%s", id, format)
			stored, err := w.store.Put(w.ctx, key, payload, contentType)
			if err != nil {
				w.fail(id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			artifact.Key = key
			artifact.URL = stored.URL
			if stored.SizeBytes > 0 {
				artifact.SizeBytes = stored.SizeBytes
			}
		}
		artifacts = append(artifacts, artifact)
	}

	now := time.Now().UTC()
	w.mu.Lock()
	if rec, ok := w.jobs[id]; ok {
		rec.Status = StatusSucceeded
		rec.Error = ""
		rec.Artifacts = artifacts
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, StatusSucceeded, "")
}

func (w *Worker) setStatus(id string, status Status, note string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if rec, ok := w.jobs[id]; ok {
		rec.Status = status
		rec.Error = note
		rec.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, status, note)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if rec, ok := w.jobs[id]; ok {
		rec.Status = StatusFailed
		rec.Error = reason
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, StatusFailed, reason)
}

func (w *Worker) recordAudit(ctx context.Context, id string, status Status, note string) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	actor := ""
	if rec, ok := w.jobs[id]; ok {
		actor = rec.RequestedBy
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     "recipe_export",
		Actor:      actor,
		ExportID:   id,
		Status:     status,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	})
}
