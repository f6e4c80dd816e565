package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sokopay/daraja/callback"
	"github.com/sokopay/daraja/handler"
	"github.com/sokopay/daraja/infra/config"
	"github.com/sokopay/daraja/infra/logger"
	"github.com/sokopay/daraja/infra/middle"
	"github.com/sokopay/daraja/infra/opensearch"
	"github.com/sokopay/daraja/infra/response"
	"github.com/sokopay/daraja/infra/validate"
	"github.com/sokopay/daraja/mpesa"
	"github.com/sokopay/daraja/ratelimit"
	"github.com/sokopay/daraja/router"
)

var (
	PORT             string
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.GetAppConfig()
	PORT = cfg.Port

	// Initialize OpenSearch client and logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized successfully")
		}
	} else {
		log.Println("OpenSearch logging is disabled")
	}

	logger.InitGlobalLogger(openSearchLogger)
}

func main() {
	cfg := config.GetAppConfig()

	gatewayConfig := config.FromEnv()
	client, err := mpesa.NewClient(gatewayConfig)
	if err != nil {
		log.Fatalf("Gateway configuration error: %v", err)
	}

	dedup, dedupCleanup := newDedupStore(cfg)
	defer dedupCleanup()

	callbacks := callback.NewHandler(callback.Hooks{
		OnSuccess: func(ctx context.Context, parsed *callback.ParsedCallback) error {
			logger.Info("Payment completed", logger.LogContext{
				Operation: "callback",
				Fields: map[string]any{
					"merchant_request_id": parsed.MerchantRequestID,
					"checkout_request_id": parsed.CheckoutRequestID,
					"receipt":             parsed.MpesaReceiptNumber,
					"amount":              parsed.Amount,
				},
			})
			return nil
		},
		OnFailure: func(ctx context.Context, parsed *callback.ParsedCallback) error {
			logger.Warn("Payment failed", logger.LogContext{
				Operation: "callback",
				Fields: map[string]any{
					"merchant_request_id": parsed.MerchantRequestID,
					"checkout_request_id": parsed.CheckoutRequestID,
					"result_code":         parsed.ResultCode,
					"error":               parsed.ErrorMessage,
				},
			})
			return nil
		},
	}, callback.Options{
		ValidateIP:       cfg.ValidateIP,
		IsDuplicate:      dedup,
		C2BDefaultAccept: cfg.C2BDefaultAccept,
		Logger:           logger.NewCallbackAdapter(nil),
	})

	paymentHandler := handler.NewPaymentHandler(client, validate.Get())
	webhookHandler := handler.NewWebhookHandler(callbacks)
	healthHandler := handler.NewHealthHandler(gatewayConfig.Environment, "1.0.0")

	limiter, limiterCancel := newLimiter(cfg)
	defer limiterCancel()

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware. RealIP is deliberately absent: it rewrites
	// RemoteAddr from the first X-Forwarded-For element, which would let a
	// forged header pass the callback IP allow-list. GetClientIP does its
	// own header handling instead.
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RequestValidationMiddleware())

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Routes(r, paymentHandler, webhookHandler, healthHandler, middle.RateLimitMiddleware(limiter))

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusNotFound, response.Response{Success: false, Message: "Not Found"})
	})

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    ":" + PORT,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", logger.LogContext{
			Fields: map[string]any{"port": PORT, "environment": gatewayConfig.Environment},
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", err)
	} else {
		logger.Info("Server stopped")
	}
}

// newDedupStore picks the duplicate suppression backend. A configured DB path
// selects the durable sqlite store, otherwise an in-memory cache serves.
func newDedupStore(cfg *config.AppConfig) (func(ctx context.Context, id string) (bool, error), func()) {
	if cfg.DedupDBPath != "" {
		store, err := callback.NewSQLiteDedupStore(cfg.DedupDBPath, cfg.DedupWindow)
		if err != nil {
			log.Fatalf("Dedup store error: %v", err)
		}
		return store.Seen, func() { _ = store.Close() }
	}

	cache := callback.NewDedupCache(10000, cfg.DedupWindow)
	return cache.Seen, func() {}
}

// newLimiter picks the quota backend. A configured Redis URL selects the
// distributed limiter shared across replicas.
func newLimiter(cfg *config.AppConfig) (ratelimit.Limiter, func()) {
	policy := ratelimit.Policy{Limit: cfg.RateLimitPerMin, Window: time.Minute}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Redis URL error: %v", err)
		}
		store := ratelimit.NewRedisStore(redis.NewClient(opts))
		limiter, err := ratelimit.NewDistributedLimiter(store, policy, ratelimit.FailOpen, "daraja")
		if err != nil {
			log.Fatalf("Rate limiter error: %v", err)
		}
		return limiter, func() {}
	}

	limiter := ratelimit.NewLocalLimiter(policy)
	ctx, cancel := context.WithCancel(context.Background())
	limiter.StartCleanup(ctx, time.Minute)
	return limiter, cancel
}
