package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/pixil98/go-testutil"
	"github.com/taskfish-server/internal/config"
	"github.com/taskfish-server/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingHandler struct {
	mu       sync.Mutex
	commands []domain.Command
	err      error
}

func (h *recordingHandler) Dispatch(_ context.Context, cmd domain.Command) (domain.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, cmd)
	return domain.CommandResult{Command: cmd.Name, Applied: true}, h.err
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func commandMessage(t *testing.T, offset int64, cmd domain.Command) *sarama.ConsumerMessage {
	t.Helper()
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &sarama.ConsumerMessage{Offset: offset, Value: data}
}

func TestConsumeClaimDispatchesInOrder(t *testing.T) {
	handler := &recordingHandler{}
	cfg := &config.KafkaConfig{CommandTimeout: time.Second}
	consumer := newConsumer(cfg, handler, discardLogger, nil)

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 4)}
	claim.messages <- commandMessage(t, 0, domain.Command{Name: domain.CommandAddQuest, Title: "Fish"})
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: []byte("garbage")}
	claim.messages <- commandMessage(t, 2, domain.Command{Name: domain.CommandSuccessFish})
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	cgh := &consumerGroupHandler{consumer: consumer, ready: make(chan bool)}
	if err := cgh.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "dispatched", len(handler.commands), 2)
	testutil.AssertEqual(t, "first", handler.commands[0].Name, domain.CommandAddQuest)
	testutil.AssertEqual(t, "first title", handler.commands[0].Title, "Fish")
	testutil.AssertEqual(t, "second", handler.commands[1].Name, domain.CommandSuccessFish)
	// malformed messages are still marked so they are not redelivered
	testutil.AssertEqual(t, "marked", len(session.marked), 3)
}

func TestConsumeClaimStopsOnSessionEnd(t *testing.T) {
	consumer := newConsumer(&config.KafkaConfig{CommandTimeout: time.Second}, &recordingHandler{}, discardLogger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage)}
	cgh := &consumerGroupHandler{consumer: consumer, ready: make(chan bool)}
	if err := cgh.ConsumeClaim(&fakeSession{ctx: ctx}, claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleMessageDispatchErrorIsLogged(t *testing.T) {
	handler := &recordingHandler{err: domain.ErrUnknownCommand}
	consumer := newConsumer(&config.KafkaConfig{CommandTimeout: time.Second}, handler, discardLogger, nil)

	consumer.handleMessage(commandMessage(t, 5, domain.Command{Name: "greet"}))
	testutil.AssertEqual(t, "dispatched", len(handler.commands), 1)
}

func TestEventProducerPublish(t *testing.T) {
	mock := mocks.NewAsyncProducer(t, nil)
	mock.ExpectInputWithCheckerFunctionAndSucceed(func(value []byte) error {
		var event domain.GameEvent
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.Type != domain.GameEventQuestCompleted || event.GoldDelta != 75 {
			return fmt.Errorf("unexpected event %+v", event)
		}
		return nil
	})

	producer := newEventProducer("taskfish-events", mock, discardLogger)
	err := producer.Publish(context.Background(), domain.GameEvent{
		Type:      domain.GameEventQuestCompleted,
		QuestID:   "q1",
		GoldDelta: 75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := producer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestEventProducerDeliveryFailureIsLogged(t *testing.T) {
	mock := mocks.NewAsyncProducer(t, nil)
	mock.ExpectInputAndFail(errors.New("broker down"))

	producer := newEventProducer("taskfish-events", mock, discardLogger)
	if err := producer.Publish(context.Background(), domain.GameEvent{Type: domain.GameEventFishRewarded}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Close drains the failed delivery alongside the logging goroutine
	_ = producer.Close()
}
