// internal/queue/queue.go
package queue

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"
)

// SendQueue carries "send now" drain jobs from the API to the worker.
const SendQueue = "campaign_sends"

// SendJob asks the worker to continuously drain one campaign.
type SendJob struct {
	CampaignID int `json:"campaign_id"`
}

// Publisher pushes send jobs onto the durable campaign_sends queue.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(SendQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) PublishSendJob(campaignID int) error {
	body, err := json.Marshal(SendJob{CampaignID: campaignID})
	if err != nil {
		return err
	}
	return p.ch.Publish("", SendQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() {
	p.ch.Close()
	p.conn.Close()
}

// Consumer delivers send jobs to a handler with manual acks. A failing job
// is requeued once; after that the periodic tick takes over the campaign.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(url string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(SendQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch}, nil
}

// Consume blocks, feeding jobs to the handler until the channel closes.
func (c *Consumer) Consume(handler func(job SendJob) error) error {
	deliveries, err := c.ch.Consume(SendQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for d := range deliveries {
		var job SendJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			log.Println("invalid send job payload:", err)
			d.Ack(false)
			continue
		}

		if err := handler(job); err != nil {
			log.Printf("send job for campaign %d failed: %v", job.CampaignID, err)
			if !d.Redelivered {
				d.Nack(false, true)
				continue
			}
			// Already retried; the cron tick will pick the campaign up.
		}

		d.Ack(false)
	}
	return nil
}

func (c *Consumer) Close() {
	c.ch.Close()
	c.conn.Close()
}
