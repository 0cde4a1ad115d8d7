package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

const (
	TypeBookingConfirmation = "booking_confirmation"
	TypeInvoiceStatus       = "invoice_status"
	TypeGeneric             = "generic"
)

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

// SendFunc delivers one message. It has the shape of smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	redis      *redis.Client
	cfg        Config
	send       SendFunc
	retryDelay time.Duration
	now        func() time.Time
}

func New(rdb *redis.Client, cfg Config) *Service {
	return &Service{
		redis:      rdb,
		cfg:        cfg,
		send:       smtp.SendMail,
		retryDelay: 5 * time.Second,
		now:        time.Now,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, EmailJob{
		Type:    TypeGeneric,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
	})
}

func (s *Service) enqueue(ctx context.Context, job EmailJob) error {
	job.Tries = 0
	job.Created = s.now()

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", job.To, err)
		metrics.RecordEmail(job.Type, "queue_failed")
		return err
	}

	metrics.RecordEmail(job.Type, "queued")
	logger.Infof("Email queued: %s to %s", job.Subject, job.To)
	return nil
}

// Start runs the delivery worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data))
			metrics.RecordEmail(job.Type, "retried")
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Email to %s failed after %d attempts", job.To, maxTries)
			s.saveFailed(ctx, job, err)
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", job.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", job.Subject)
	msg.WriteString("\r\n" + job.Body)

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return s.send(addr, auth, s.cfg.From, []string{job.To}, []byte(msg.String()))
}

func (s *Service) saveFailed(ctx context.Context, job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  s.now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.WithoutCancel(ctx), failedQueueKey, string(data))
	metrics.RecordEmail(job.Type, "failed")
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

// QueueLength reports the pending queue size and publishes it as a gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

// Confirmation describes a submitted booking for the confirmation email.
type Confirmation struct {
	InvoiceID     string
	InvoiceNumber string
	Lines         []string
	GrandTotal    int64
	DueDate       time.Time
}

func (s *Service) SendBookingConfirmation(ctx context.Context, to, name string, c Confirmation) error {
	ref := c.InvoiceNumber
	if ref == "" {
		ref = c.InvoiceID
	}

	var lines strings.Builder
	for _, l := range c.Lines {
		lines.WriteString("  - " + l + "\n")
	}

	due := "-"
	if !c.DueDate.IsZero() {
		due = c.DueDate.Format("Jan 2, 2006 at 3:04 PM")
	}

	subject := "Booking Received - Invoice " + ref
	body := fmt.Sprintf(`Hi %s,

We have received your booking:

%s
Total: %s
Invoice: %s
Please complete payment before %s.

- Quantum Sport`, name, lines.String(), FormatRupiah(c.GrandTotal), ref, due)

	return s.enqueue(ctx, EmailJob{Type: TypeBookingConfirmation, To: to, Name: name, Subject: subject, Body: body})
}

// SendInvoiceStatus queues the email sent when an invoice reaches a final status.
func (s *Service) SendInvoiceStatus(ctx context.Context, to, name, invoiceID, status string) error {
	var headline string
	switch status {
	case "PAID":
		headline = "Your payment was received and your booking is confirmed."
	case "EXPIRED":
		headline = "Your invoice expired before payment and the booking was released."
	case "CANCELLED":
		headline = "Your booking was cancelled."
	default:
		headline = "Your payment could not be completed."
	}

	subject := fmt.Sprintf("Invoice %s - %s", invoiceID, status)
	body := fmt.Sprintf(`Hi %s,

%s

Invoice: %s
Status: %s

- Quantum Sport`, name, headline, invoiceID, status)

	return s.enqueue(ctx, EmailJob{Type: TypeInvoiceStatus, To: to, Name: name, Subject: subject, Body: body})
}

// FormatRupiah renders an integer amount as "Rp 1.250.000".
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}
