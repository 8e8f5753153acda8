package main

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"

	"taskapi/internal/app"
	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/services"
	"taskapi/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// --- Task events (optional) ---
	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			log.Printf("RabbitMQ unavailable, task events disabled: %v", err)
		} else {
			defer mqClient.Close() // Ensure the connection is closed on exit
			events = mqClient

			if cfg.RabbitMQ.Consume {
				if err := mqClient.ConsumeTaskEvents(logTaskEvent); err != nil {
					log.Printf("Failed to start RabbitMQ consumer: %v", err)
				}
			}
		}
	}

	application := app.New(cfg, db, events)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.Server.Port)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Fiber.Listen(cfg.Server.Port); err != nil {
			log.Printf("Server stopped: %v", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := application.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// logTaskEvent is the audit consumer: it records every task event it sees.
func logTaskEvent(msg amqp.Delivery) error {
	var event services.TaskEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		// Malformed payloads would be requeued forever; drop them.
		log.Printf("Discarding malformed task event (tag %d): %v", msg.DeliveryTag, err)
		return nil
	}
	log.Printf("Task event %s: task=%d actor=%d status=%s", event.Type, event.TaskID, event.ActorID, event.Task.Status)
	return nil
}
