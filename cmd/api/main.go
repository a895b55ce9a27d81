package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/neticdev/lead-intake/internal/infra/database"
	"github.com/neticdev/lead-intake/internal/infra/http/handlers"
	"github.com/neticdev/lead-intake/internal/infra/http/middleware"
	"github.com/neticdev/lead-intake/internal/infra/mail"
	"github.com/neticdev/lead-intake/internal/infra/queue"
	"github.com/neticdev/lead-intake/internal/usecase"
)

func main() {
	godotenv.Load()

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Fatalw("open database", "err", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatalw("run migrations", "err", err)
	}

	// RabbitMQ is optional. Without it lead events are not published, but
	// intake keeps working.
	var events usecase.EventPublisher
	var rabbitConn *amqp.Connection
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		rabbit, err := queue.NewRabbitMQ(url)
		if err != nil {
			logger.Warnw("rabbitmq unavailable, lead events disabled", "err", err)
		} else {
			defer rabbit.Close()
			rabbitConn = rabbit.Conn
			events = queue.NewProducer(rabbit.Conn, rabbit.Ch)
		}
	}

	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	mailSender := mail.NewEmailSender(mail.Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("FROM_EMAIL"),
	})
	if !mailSender.Configured() {
		logger.Warnw("smtp not configured, intro emails will not be sent")
	}

	fromEmail := os.Getenv("FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "netic@example.com"
	}
	bookingURL := os.Getenv("BOOKING_URL")
	if bookingURL == "" {
		bookingURL = "http://localhost:3000/book"
	}

	// Repositories
	userRepo := database.NewUserRepository(db)
	leadRepo := database.NewLeadRepository(db)
	messageRepo := database.NewMessageRepository(db)
	duplicateRepo := database.NewDuplicateRepository(db)

	// UseCases
	matcher := usecase.NewUserMatcher(userRepo)
	detector := usecase.NewDuplicateDetector(leadRepo, duplicateRepo)
	messaging := usecase.NewMessagingService(messageRepo, mailSender, fromEmail, bookingURL, logger)
	intake := usecase.NewIntakeLeadUseCase(leadRepo, matcher, detector, messaging, events, logger)

	// Handlers
	leadHandler := handlers.NewLeadHandler(intake, leadRepo, userRepo, messageRepo, logger)
	messageHandler := handlers.NewMessageHandler(messaging, messageRepo, leadRepo, userRepo, logger)
	healthHandler := handlers.NewHealthHandler(db, rabbitConn, mailSender)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/lead/angi", leadHandler.Intake)
		r.Get("/lead", leadHandler.List)
		r.Get("/lead/stats", leadHandler.Stats)
		r.Get("/lead/{id}", leadHandler.GetByID)

		r.Get("/message/{id}", messageHandler.GetByID)
		r.Post("/message/{id}/send", messageHandler.Send)
		r.Get("/message/{id}/send", messageHandler.SendStatus)
	})

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Infow("lead intake API listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatalw("server stopped", "err", err)
	}
}
