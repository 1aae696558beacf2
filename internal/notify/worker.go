package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/notable-app/apiserver/internal/mq"
)

// Worker consumes queued notifications and hands them to a Sender.
// Send failures nack the message so the broker can redeliver.
type Worker struct {
	queue     *mq.MQ
	queueName string
	sender    Sender
	logger    *slog.Logger
}

func NewWorker(queue *mq.MQ, queueName string, sender Sender) *Worker {
	return &Worker{
		queue:     queue,
		queueName: queueName,
		sender:    sender,
		logger:    slog.Default(),
	}
}

// Run blocks consuming the notification queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("notification worker started", "queue", w.queueName)
	return w.queue.Subscribe(ctx, w.queueName, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var notification Notification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		// A malformed payload will never succeed; drop it instead of
		// redelivering forever.
		w.logger.Error("dropping malformed notification", "message_id", msg.ID, "error", err)
		return nil
	}

	if err := w.sender.Send(ctx, notification); err != nil {
		return fmt.Errorf("failed to deliver %s notification: %w", notification.Kind, err)
	}
	w.logger.Info("notification delivered", "kind", notification.Kind, "to", notification.To)
	return nil
}
