package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/taskfish-server/internal/domain"
)

var questTitles = []string{
	"Catch a trout", "Water the plants", "Write the report", "Clean the desk",
	"Read a chapter", "Go for a run", "Answer email", "Cook dinner",
	"Fix the bike", "Call a friend", "Sort the photos", "Practice guitar",
}

// questPool tracks quest IDs learned from quest_added events
type questPool struct {
	mu  sync.Mutex
	ids []string
}

func (p *questPool) add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
}

// take removes and returns a random known quest ID
func (p *questPool) take() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return "", false
	}
	i := rand.IntN(len(p.ids))
	id := p.ids[i]
	p.ids = append(p.ids[:i], p.ids[i+1:]...)
	return id, true
}

func (p *questPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids)
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	commandTopic := flag.String("commands", "taskfish-commands", "Kafka command topic")
	eventTopic := flag.String("events", "taskfish-events", "Kafka event topic used to learn quest IDs")
	commandsPerSecond := flag.Int("rate", 5, "Commands per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *commandsPerSecond <= 0 {
		log.Fatalf("rate must be positive")
	}
	brokerList := strings.Split(*brokers, ",")

	fmt.Println("TaskFish command producer")
	fmt.Printf("  Brokers:       %s\n", *brokers)
	fmt.Printf("  Command topic: %s\n", *commandTopic)
	fmt.Printf("  Event topic:   %s\n", *eventTopic)
	fmt.Printf("  Commands/sec:  %d\n", *commandsPerSecond)
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	// one partition key keeps commands in order
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	consumer, err := sarama.NewConsumer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create event consumer: %v", err)
	}
	defer consumer.Close()

	var successCount, errorCount, sentCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Learn quest IDs so completions target real quests
	pool := &questPool{}
	partitions, err := consumer.Partitions(*eventTopic)
	if err != nil {
		log.Printf("Event topic unavailable, completions disabled: %v", err)
	}
	for _, partition := range partitions {
		pc, err := consumer.ConsumePartition(*eventTopic, partition, sarama.OffsetNewest)
		if err != nil {
			log.Printf("Failed to consume partition %d: %v", partition, err)
			continue
		}
		defer pc.Close()

		go func() {
			for msg := range pc.Messages() {
				var event domain.GameEvent
				if err := json.Unmarshal(msg.Value, &event); err != nil {
					continue
				}
				if event.Type == domain.GameEventQuestAdded && event.QuestID != "" {
					pool.add(event.QuestID)
				}
			}
		}()
	}

	sendCommand := func(cmd domain.Command) {
		cmd.ID = uuid.NewString()
		data, err := json.Marshal(cmd)
		if err != nil {
			log.Printf("Failed to marshal command: %v", err)
			return
		}

		producer.Input() <- &sarama.ProducerMessage{
			Topic: *commandTopic,
			Key:   sarama.StringEncoder("player"),
			Value: sarama.ByteEncoder(data),
		}
		atomic.AddInt64(&sentCount, 1)
	}

	shutdown := func(reason string) {
		fmt.Printf("\n%s, shutting down...\n", reason)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("Completed. Sent: %d, Acked: %d, Errors: %d\n",
			atomic.LoadInt64(&sentCount),
			atomic.LoadInt64(&successCount),
			atomic.LoadInt64(&errorCount),
		)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*commandsPerSecond))
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	for {
		select {
		case <-sigChan:
			shutdown("Interrupted")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				shutdown("Duration reached")
				return
			}

			roll := rand.IntN(100)
			switch {
			case roll < 40:
				title := questTitles[rand.IntN(len(questTitles))]
				sendCommand(domain.Command{Name: domain.CommandAddQuest, Title: title})
			case roll < 75:
				if id, ok := pool.take(); ok {
					sendCommand(domain.Command{Name: domain.CommandCompleteQuest, QuestID: id})
				} else {
					sendCommand(domain.Command{Name: domain.CommandSuccessFish})
				}
			case roll < 95:
				sendCommand(domain.Command{Name: domain.CommandSuccessFish})
			default:
				sendCommand(domain.Command{Name: domain.CommandUpgradeProduction})
			}

		case <-statsTicker.C:
			fmt.Printf("[%s] Sent: %d | Acked: %d | Errors: %d | Known quests: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&sentCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
				pool.size(),
			)
		}
	}
}
