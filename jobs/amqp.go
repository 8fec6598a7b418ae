package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"parkingapp/logs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker publishes tasks to a durable RabbitMQ queue and consumes them
// with manual acknowledgement.
type AMQPBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	wg      sync.WaitGroup
}

func DialAMQP(url, queue string) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	// one unacked report job per consumer at a time
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}

	return &AMQPBroker{conn: conn, channel: ch, queue: queue}, nil
}

func (b *AMQPBroker) Dispatch(ctx context.Context, task Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := b.channel.PublishWithContext(ctx,
		"",
		b.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    task.JobID,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish task: %w", err)
	}
	logs.Logger.Infof("[RabbitMQ] published job %s to %s", task.JobID, b.queue)
	return nil
}

func (b *AMQPBroker) Start(ctx context.Context, exec Executor) error {
	msgs, err := b.channel.Consume(
		b.queue,
		"",    // consumer tag
		false, // manual ack after the job ran
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					logs.Logger.Warn("[RabbitMQ] delivery channel closed, stopping consumer")
					return
				}
				handleDelivery(ctx, exec, d)
			}
		}
	}()
	logs.Logger.Infof("[RabbitMQ] consuming from queue: %s", b.queue)
	return nil
}

func handleDelivery(ctx context.Context, exec Executor, d amqp.Delivery) {
	var task Task
	if err := json.Unmarshal(d.Body, &task); err != nil || task.JobID == "" || task.Name == "" {
		logs.Logger.Errorf("[RabbitMQ] dropping undecodable task: %v", err)
		if nerr := d.Nack(false, false); nerr != nil {
			logs.Logger.Errorf("[RabbitMQ] nack failed: %v", nerr)
		}
		return
	}
	exec.Execute(ctx, task)
	if err := d.Ack(false); err != nil {
		logs.Logger.Errorf("[RabbitMQ] ack of job %s failed: %v", task.JobID, err)
	}
}

// Wait blocks until the consumer goroutine has returned.
func (b *AMQPBroker) Wait() {
	b.wg.Wait()
}

func (b *AMQPBroker) Close() {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
