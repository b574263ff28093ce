package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/LJTian/OpportunityHub/internal/collector"
)

type kafkaMessage struct {
	Title    string     `json:"title"`
	Link     string     `json:"link"`
	Type     string     `json:"type"`
	Source   string     `json:"source"`
	Deadline *time.Time `json:"deadline,omitempty"`
	SentAt   time.Time  `json:"sentAt"`
}

// KafkaDeliverer 把机会写入 Kafka，target 为 topic，消息 key 为链接
type KafkaDeliverer struct {
	producer sarama.SyncProducer
}

func NewKafkaDeliverer(brokers []string) (*KafkaDeliverer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return &KafkaDeliverer{producer: producer}, nil
}

// NewKafkaDelivererWithProducer 使用外部构造的 producer（测试时传入 mock）
func NewKafkaDelivererWithProducer(p sarama.SyncProducer) *KafkaDeliverer {
	return &KafkaDeliverer{producer: p}
}

func (k *KafkaDeliverer) Deliver(ctx context.Context, target string, opp collector.Opportunity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(kafkaMessage{
		Title:    opp.Title,
		Link:     opp.Link,
		Type:     opp.Type,
		Source:   opp.Source,
		Deadline: opp.Deadline,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal: %w", err)
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: target,
		Key:   sarama.StringEncoder(opp.Link),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("kafka: send to %s: %w", target, err)
	}
	return nil
}

func (k *KafkaDeliverer) Close() error {
	return k.producer.Close()
}
