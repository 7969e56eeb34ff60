package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"gymshood/internal/logger"
	"gymshood/internal/metrics"
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

// Send queues an email; delivery is handled by the worker started via Start.
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
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	logger.Infof("Email queued: %s to %s", subject, to)
	return nil
}

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
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s (attempt %d): %v", job.To, job.Tries, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			metrics.RecordEmail("generic", "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail("generic", "sent")
	logger.Infof("Email sent to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n"
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
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendPurchaseConfirmation(ctx context.Context, to, name, planName, gymName, planType string, amount int64, purchasedAt time.Time) error {
	subject := "Plan Purchase Confirmation - GymsHood"
	body := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>Thank you for purchasing the <strong>%s</strong> plan from <strong>%s</strong>.</p>
<ul>
  <li><strong>Plan:</strong> %s (%s)</li>
  <li><strong>Amount Paid:</strong> %d</li>
  <li><strong>Purchase Date:</strong> %s</li>
</ul>
<p>You can now start visiting your gym using this plan!</p>
<p>Stay fit,<br/>Team GymsHood</p>`,
		name, planName, gymName, planName, planType, amount, purchasedAt.Format("Jan 2, 2006"))

	return s.Send(ctx, to, name, subject, body)
}

func (s *Service) SendCheckInConfirmation(ctx context.Context, to, name, gymName string, checkOutBy time.Time) error {
	subject := "Check-in Confirmed - GymsHood"
	body := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>Your check-in at <strong>%s</strong> is recorded.</p>
<p>Your session runs until <strong>%s</strong>.</p>
<p>Have a great workout!<br/>Team GymsHood</p>`,
		name, gymName, checkOutBy.Format("3:04 PM"))

	return s.Send(ctx, to, name, subject, body)
}

func (s *Service) SendRefundNotice(ctx context.Context, to, name, planName string, amount int64, reason string) error {
	subject := "Refund Processed - GymsHood"
	body := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>Your refund for the <strong>%s</strong> plan has been processed.</p>
<ul>
  <li><strong>Refund Amount:</strong> %d</li>
  <li><strong>Reason:</strong> %s</li>
</ul>
<p>Team GymsHood</p>`,
		name, planName, amount, reason)

	return s.Send(ctx, to, name, subject, body)
}
