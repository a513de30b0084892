package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/metrics"
	"github.com/persistorai/leadintake/internal/models"
)

const (
	defaultAuditQueueSize = 1000
	auditWriteTimeout     = 5 * time.Second
)

// AuditEnqueuer accepts audit records for asynchronous writing.
type AuditEnqueuer interface {
	Enqueue(rec models.AuditRecord)
}

// AuditWorker writes audit records from a bounded queue on one goroutine, so
// request handlers never wait on the audit log. Records are stamped when
// they are enqueued, not when they are written.
type AuditWorker struct {
	auditor domain.Auditor
	log     *logrus.Logger
	queue   chan models.AuditRecord
	now     func() time.Time
}

// NewAuditWorker creates an AuditWorker. A non-positive queueSize selects
// the default of 1000.
func NewAuditWorker(auditor domain.Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = defaultAuditQueueSize
	}

	return &AuditWorker{
		auditor: auditor,
		log:     log,
		queue:   make(chan models.AuditRecord, queueSize),
		now:     time.Now,
	}
}

// Enqueue queues rec without blocking. When the queue is full the record is
// dropped and counted.
func (w *AuditWorker) Enqueue(rec models.AuditRecord) {
	if rec.At.IsZero() {
		rec.At = w.now()
	}

	select {
	case w.queue <- rec:
		metrics.AuditQueueDepth.Set(float64(len(w.queue)))
	default:
		metrics.AuditDroppedTotal.Inc()
		w.log.WithFields(logrus.Fields{
			"action":    rec.Action,
			"entity_id": rec.EntityID,
		}).Warn("audit queue full, dropping entry")
	}
}

// Backlog reports how many records are waiting and the queue capacity.
func (w *AuditWorker) Backlog() (depth, capacity int) {
	return len(w.queue), cap(w.queue)
}

// Run writes queued records until ctx is cancelled, then writes whatever is
// still queued and returns.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case rec := <-w.queue:
			w.write(rec)
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case rec := <-w.queue:
			w.write(rec)
		default:
			return
		}
	}
}

// write runs detached from the Run context so the final drain still
// reaches the store after shutdown begins.
func (w *AuditWorker) write(rec models.AuditRecord) {
	metrics.AuditQueueDepth.Set(float64(len(w.queue)))

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := w.auditor.RecordAudit(ctx, rec); err != nil {
		w.log.WithError(err).WithField("action", rec.Action).Warn("audit record failed")
	}
}

// enqueueAudit is a no-op when auditing is disabled.
func enqueueAudit(w AuditEnqueuer, rec models.AuditRecord) {
	if w == nil {
		return
	}

	w.Enqueue(rec)
}
