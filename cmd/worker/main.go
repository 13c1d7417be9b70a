package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/bootstrap"
	"github.com/OFFIS-RIT/diagramkg/internal/queue"
	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.InitLogger("worker")

	// stores
	pool, _, err := bootstrap.OpenPostgres(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pool.Close()

	docs, err := bootstrap.OpenDocuments(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to mongo", "err", err)
	}
	defer docs.Close(context.Background())

	graphStore, err := bootstrap.OpenGraph(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to neo4j", "err", err)
	}
	defer graphStore.Close(context.Background())

	projector, err := bootstrap.NewProjector(docs, graphStore)
	if err != nil {
		logger.Fatal("Could not create projector", "err", err)
	}
	runner, err := bootstrap.NewCorpusRunner(pool, docs, projector)
	if err != nil {
		logger.Fatal("Could not create corpus runner", "err", err)
	}

	// Init rabbitmq
	conn, err := queue.Init()
	if err != nil {
		logger.Fatal("Unable to connect to rabbitmq", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.SyncQueue}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	// prefetch=1 so a long corpus run never holds back other deliveries
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.SyncQueue,
		fmt.Sprintf("%s_consumer", queue.SyncQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.SyncQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.SyncQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed", "queue", queue.SyncQueue)
					stop()
					return
				}

				startTime := time.Now()
				logger.Info("Received message", "queue", queue.SyncQueue)

				processingErr := queue.ProcessSyncMessage(ctx, projector, runner.Run, string(msg.Body))
				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.SyncQueue, "err", processingErr)
					queue.HandleProcessingError(ch, msg, queue.SyncQueue)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.SyncQueue)
				}

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
