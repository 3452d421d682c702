// Package dispatch builds and sends the absence notification batch.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/presenca/attendance-notify/internal/model"
	"github.com/presenca/attendance-notify/internal/template"
)

type Gateway interface {
	Send(ctx context.Context, phone, message string) (response string, err error)
}

// AuditSink receives exactly one record per absentee per invocation.
type AuditSink interface {
	Append(ctx context.Context, rec model.DispatchRecord) (int64, error)
}

// ReceiptCache stores a best-effort delivery receipt per sent message.
type ReceiptCache interface {
	StoreReceipt(ctx context.Context, recordID int64, response string, sentAt time.Time) error
}

// Outcome is the result for one absentee.
type Outcome struct {
	Student  string       `json:"student"`
	Guardian string       `json:"guardian"`
	Phone    string       `json:"phone,omitempty"`
	Status   model.Status `json:"status"`
	Response string       `json:"response,omitempty"`
	Error    string       `json:"error,omitempty"`
	AuditErr string       `json:"audit_error,omitempty"`
}

// BatchResult aggregates one invocation. Success reflects the pipeline
// itself, not delivery: individual failed sends leave it true, so
// callers must read the per-message outcomes (and the Failed count) to
// know what actually went out.
type BatchResult struct {
	BatchID  string    `json:"batch_id"`
	Outcomes []Outcome `json:"outcomes"`
	Sent     int       `json:"sent"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
	Success  bool      `json:"success"`
}

type Pipeline struct {
	gateway  Gateway
	audit    AuditSink
	receipts ReceiptCache
	interval time.Duration
	log      *slog.Logger
}

// New builds a pipeline. interval is the fixed pause between
// consecutive gateway sends; it rate-limits the gateway and must be
// positive.
func New(gateway Gateway, audit AuditSink, interval time.Duration, log *slog.Logger) (*Pipeline, error) {
	if gateway == nil {
		return nil, errors.New("gateway must not be nil")
	}
	if audit == nil {
		return nil, errors.New("audit sink must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		gateway:  gateway,
		audit:    audit,
		interval: interval,
		log:      log,
	}, nil
}

// WithReceipts enables the optional receipt cache.
func (p *Pipeline) WithReceipts(rc ReceiptCache) *Pipeline {
	p.receipts = rc
	return p
}

// NormalizePhone strips everything but digits. ok is false when
// nothing usable remains.
func NormalizePhone(raw string) (phone string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone = b.String()
	return phone, phone != ""
}

// BuildBatch renders one outbound message per absentee with a usable
// phone. Absentees whose phone is missing or has no digits come back
// in skipped instead; no message is produced for them.
func BuildBatch(absentees []model.Student, templateBody string) (batch []model.OutboundMessage, skipped []model.Student) {
	for _, st := range absentees {
		phone, ok := NormalizePhone(st.GuardianPhone)
		if !ok {
			skipped = append(skipped, st)
			continue
		}
		batch = append(batch, model.OutboundMessage{
			Phone:        phone,
			Body:         template.Render(templateBody, st.Name, guardianOrNA(st.GuardianName)),
			StudentName:  st.Name,
			GuardianName: st.GuardianName,
		})
	}
	return batch, skipped
}

// Run builds the batch for the given absentees and sends it
// sequentially, pausing interval between consecutive sends regardless
// of each send's outcome. There are no retries and no rollback:
// already-sent messages stay sent when a later one fails. Every
// absentee produces exactly one audit record.
func (p *Pipeline) Run(ctx context.Context, class, date string, absentees []model.Student, templateBody string) BatchResult {
	res := BatchResult{
		BatchID: uuid.NewString(),
		Success: true,
	}

	batch, skippedStudents := BuildBatch(absentees, templateBody)

	for _, st := range skippedStudents {
		out := Outcome{
			Student:  st.Name,
			Guardian: st.GuardianName,
			Status:   model.StatusSkipped,
		}
		p.appendAudit(ctx, class, date, st.Name, st.GuardianName, "", model.StatusSkipped, "", &out)
		p.log.Warn("skipping absentee without usable phone",
			"batch", res.BatchID, "student", st.Name, "class", class)
		res.Skipped++
		res.Outcomes = append(res.Outcomes, out)
	}

	for i, msg := range batch {
		p.log.Info("sending message",
			"batch", res.BatchID, "index", i+1, "total", len(batch), "phone", msg.Phone)

		out := Outcome{
			Student:  msg.StudentName,
			Guardian: msg.GuardianName,
			Phone:    msg.Phone,
		}

		response, err := p.gateway.Send(ctx, msg.Phone, msg.Body)
		if err != nil {
			out.Status = model.StatusFailed
			out.Error = err.Error()
			res.Failed++
			p.log.Error("send failed",
				"batch", res.BatchID, "student", msg.StudentName, "error", err)
			p.appendAudit(ctx, class, date, msg.StudentName, msg.GuardianName, msg.Phone, model.StatusFailed, err.Error(), &out)
		} else {
			out.Status = model.StatusSent
			out.Response = response
			res.Sent++
			recordID := p.appendAudit(ctx, class, date, msg.StudentName, msg.GuardianName, msg.Phone, model.StatusSent, response, &out)
			p.storeReceipt(ctx, recordID, response)
		}

		res.Outcomes = append(res.Outcomes, out)

		if i < len(batch)-1 {
			time.Sleep(p.interval)
		}
	}

	p.log.Info("batch finished",
		"batch", res.BatchID, "sent", res.Sent, "failed", res.Failed, "skipped", res.Skipped)
	return res
}

// appendAudit writes one audit record. Failures are surfaced on the
// outcome but never stop the batch; the log is best-effort relative to
// the sends.
func (p *Pipeline) appendAudit(ctx context.Context, class, date, student, guardian, phone string, status model.Status, response string, out *Outcome) int64 {
	rec := model.DispatchRecord{
		Student:  student,
		Class:    class,
		Date:     date,
		Guardian: guardian,
		Phone:    phone,
		Status:   status,
	}
	if response != "" {
		rec.Response = &response
	}

	id, err := p.audit.Append(ctx, rec)
	if err != nil {
		out.AuditErr = err.Error()
		p.log.Error("audit append failed", "student", student, "status", status, "error", err)
		return 0
	}
	return id
}

func (p *Pipeline) storeReceipt(ctx context.Context, recordID int64, response string) {
	if p.receipts == nil || recordID == 0 {
		return
	}
	if err := p.receipts.StoreReceipt(ctx, recordID, response, time.Now().UTC()); err != nil {
		p.log.Warn("receipt cache write failed", "record", recordID, "error", err)
	}
}

func guardianOrNA(name string) string {
	if name == "" {
		return "N/A"
	}
	return name
}
