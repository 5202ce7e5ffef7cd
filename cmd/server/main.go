package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"urbangear/config"
	"urbangear/internal/api"
	"urbangear/internal/auth"
	"urbangear/internal/broker"
	"urbangear/internal/catalog"
	"urbangear/internal/checkout"
	"urbangear/internal/redisclient"
	"urbangear/internal/session"
	"urbangear/internal/store"
	"urbangear/internal/util"
	"urbangear/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("urbangear", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	sessions := session.NewManager(cfg.Business.ToastTTL, cfg.Business.SessionIdleTTL)
	defer sessions.Close()

	catalogService := catalog.NewService(db, redisClient, cfg.Business.CatalogCacheTTL)
	authService := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	checkoutService := checkout.NewService(db, redisClient, eventPublisher, sessions)
	paymentProvider := checkout.NewPaymentProvider(db, eventPublisher, cfg.Business.PaymentSuccessRate)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go sessions.StartReaper(workerCtx)

	checkoutConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout, cfg.Kafka.ConsumerGroup)
	checkoutWorker := worker.NewCheckoutWorker(checkoutConsumer, checkoutService)
	go func() {
		if err := checkoutWorker.Start(workerCtx); err != nil {
			log.Printf("Checkout worker error: %v", err)
		}
	}()

	paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout, "payment-provider-group")
	paymentWorker := worker.NewPaymentWorker(paymentConsumer, paymentProvider)
	go func() {
		if err := paymentWorker.Start(workerCtx); err != nil {
			log.Printf("Payment worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(sessions, catalogService, checkoutService, authService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	checkoutWorker.Stop()
	paymentWorker.Stop()

	log.Println("Server exited")
}
