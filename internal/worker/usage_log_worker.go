package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"communibot/internal/model"
	"communibot/internal/repository"
)

// UsageLogWorker drains the usage-log queue and persists entries, keeping
// provider-call bookkeeping off the answering hot path.
type UsageLogWorker struct {
	conn      *amqp.Connection
	repo      *repository.UsageLogRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUsageLogWorker(conn *amqp.Connection, repo *repository.UsageLogRepository, queueName string) *UsageLogWorker {
	return &UsageLogWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *UsageLogWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var entry model.AIUsageLog
				if err := json.Unmarshal(d.Body, &entry); err != nil {
					log.Printf("worker decode usage log failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Create(&entry); err != nil {
					log.Printf("worker persist usage log failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *UsageLogWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
