package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/LJTian/OpportunityHub/internal/collector"
)

func TestKafkaDelivererSendsKeyedMessage(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if len(val) == 0 {
			return errors.New("empty value")
		}
		return nil
	})

	k := NewKafkaDelivererWithProducer(producer)
	defer k.Close()

	opp := collector.Opportunity{Title: "Hack A", Link: "https://x/a", Type: collector.TypeHackathon, Source: "Unstop"}
	if err := k.Deliver(context.Background(), "opportunities", opp); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
}

func TestKafkaDelivererReportsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	k := NewKafkaDelivererWithProducer(producer)
	defer k.Close()

	err := k.Deliver(context.Background(), "opportunities", collector.Opportunity{Title: "t", Link: "https://x/a"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
}
