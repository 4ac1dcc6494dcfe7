package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type EmailJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	job := EmailJob{
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	metrics.SetEmailQueueLength(s.QueueLength(ctx))
	logger.Infof("Email queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email worker stopped")
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
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s (attempt %d): %v", job.To, job.Tries, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			s.saveFailed(job, err)
		}
		metrics.RecordEmail("smtp", "failed")
		return
	}

	metrics.RecordEmail("smtp", "sent")
	logger.Infof("Email sent to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("Email to %s moved to failed queue after %d attempts", job.To, job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendBookingConfirmation(ctx context.Context, email, name, date, startTime string) error {
	subject := "Pilates Booking Confirmed"
	body := fmt.Sprintf(`Hi %s,

Your Pilates class is booked!

Date: %s
Time: %s

One deposit credit has been used for this booking.

See you in class!

- GymDesk Team`, name, date, startTime)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendInstallmentReminder(ctx context.Context, email, name string, amountCents int64, dueDate string) error {
	subject := "Installment Payment Due"
	body := fmt.Sprintf(`Hi %s,

A membership installment of %.2f EUR is due on %s.

Please settle it at the front desk by cash or card. Unpaid locked
installments suspend gym access on the due date.

- GymDesk Team`, name, float64(amountCents)/100, dueDate)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendRefillNotice(ctx context.Context, email, name string, credits int) error {
	subject := "Your Pilates Credits Are Back"
	body := fmt.Sprintf(`Hi %s,

Your weekly Pilates deposit has been refilled to %d credits.

Book your classes early, spots fill up fast.

- GymDesk Team`, name, credits)

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) SendRequestDecision(ctx context.Context, email, name, decision string) error {
	subject := "Membership Request " + decision
	body := fmt.Sprintf(`Hi %s,

Your membership request has been %s.

Log in to see the details.

- GymDesk Team`, name, decision)

	return s.Send(ctx, email, name, subject, body)
}
