package infrastructure

import (
	"context"
	"regexp"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"job-board/domain"
)

const sendTimeout = 15 * time.Second

var magicLinkPattern = regexp.MustCompile(`https?://\S+`)

// NotificationPublisher hands a message to a queue for a worker to deliver.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg domain.EmailMessage) error
}

// Dispatcher delivers notification emails. Without a sender it logs the
// message instead, which is the local development mode rather than a failure.
type Dispatcher struct {
	Sender  EmailSender
	Queue   NotificationPublisher
	Metrics *Metrics
	Log     *log.Logger

	wg sync.WaitGroup
}

func NewDispatcher(sender EmailSender, queue NotificationPublisher, metrics *Metrics) *Dispatcher {
	return &Dispatcher{Sender: sender, Queue: queue, Metrics: metrics, Log: log.StandardLogger()}
}

func (d *Dispatcher) logger() *log.Logger {
	if d.Log == nil {
		return log.StandardLogger()
	}
	return d.Log
}

// ExtractMagicLink returns the first URL found in text, or "".
func ExtractMagicLink(text string) string {
	return magicLinkPattern.FindString(text)
}

// Send delivers msg and reports whether it went out. It never panics on
// provider failures; they are logged and reported as false.
func (d *Dispatcher) Send(ctx context.Context, msg domain.EmailMessage) bool {
	logger := d.logger()

	if d.Sender == nil {
		entry := logger.WithFields(log.Fields{"to": msg.To, "subject": msg.Subject})
		entry.Info("email provider not configured, logging message instead\n" + msg.Text)
		if link := ExtractMagicLink(msg.Text); link != "" {
			entry.WithField("magic_link", link).Info("magic link: \x1b[32m" + link + "\x1b[0m")
		}
		d.Metrics.Notification("console", "logged")
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	started := time.Now()
	err := d.Sender.Send(ctx, msg)
	entry := logger.WithFields(log.Fields{
		"provider":    d.Sender.Name(),
		"to":          msg.To,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("email delivery failed")
		d.Metrics.Notification(d.Sender.Name(), "failed")
		return false
	}
	entry.Info("email sent")
	d.Metrics.Notification(d.Sender.Name(), "sent")
	return true
}

// SendFireAndForget returns immediately. The message goes to the queue
// when one is configured, otherwise it is sent from a background goroutine.
// The outcome is only visible in the logs.
func (d *Dispatcher) SendFireAndForget(msg domain.EmailMessage) {
	if d.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := d.Queue.PublishNotification(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		d.logger().WithError(err).Warn("failed to queue notification, sending in background")
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger().WithField("panic", r).Error("background email sending failed")
			}
		}()
		d.Send(context.Background(), msg)
	}()
}

// Wait blocks until background sends started by SendFireAndForget finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
