package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"hamkae-backend/internal/config"
	"hamkae-backend/internal/database"
	"hamkae-backend/internal/handlers"
	"hamkae-backend/internal/jobs"
	"hamkae-backend/internal/middleware"
	"hamkae-backend/internal/services"
	"hamkae-backend/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 HAMKAE BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ FATAL ERROR: %v", err)
	}

	// Connect to database
	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()

	// Run migrations
	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ FATAL ERROR: Database migrations failed: %v", err)
	}

	store := database.NewStore(db)

	// Image storage for marker photos
	images, err := services.NewLocalImageStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("❌ FATAL ERROR: %v", err)
	}
	log.Printf("✅ Image store ready at %s", cfg.UploadDir)

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	if cfg.FirebaseCredentialsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(cfg.FirebaseCredentialsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else if cfg.FirebaseCredentialsFile != "" {
		fcmService, err = services.NewFCMService(cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	} else {
		log.Println("⚠️  No Firebase credentials configured, push notifications disabled")
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Verification pipeline: judge client, points policy, orchestrator,
	// worker and the periodic sweep.
	judge := services.NewJudgeClient(cfg.JudgeAPIURL, cfg.JudgeAPIKey, cfg.JudgeModel, cfg.JudgeTimeout, images)
	points := services.NewPointsService(store, cfg.BasePoints, cfg.BonusPoints, cfg.ConfidenceThreshold)
	verifier := services.NewVerificationService(store, judge, points)
	verifier.OnVerdict = func(event services.VerdictEvent) {
		if event.Approved {
			wsHub.BroadcastAll(websocket.EventMarkerCleaned, map[string]string{"marker_id": event.MarkerID})
		}
		wsHub.SendToUser(event.UploaderID, websocket.EventVerificationResult, event)

		if user, err := store.UserByID(event.UploaderID); err == nil && user.FCMToken != nil {
			if err := fcmService.SendVerificationResultNotification(*user.FCMToken, event.MarkerID, event.Approved, event.PointsAwarded); err != nil {
				log.Printf("⚠️ Failed to push verification notification: %v", err)
			}
		}
	}

	worker := services.NewVerificationWorker(store, verifier, cfg.TaskMaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go worker.Run(ctx)

	scheduler := jobs.NewScheduler(worker)
	if err := scheduler.Start(cfg.WorkerSweepInterval); err != nil {
		log.Fatalf("❌ FATAL ERROR: %v", err)
	}
	defer scheduler.Stop()

	rewards := services.NewRewardService(store, points, cfg.PinMaxAttempts)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, cfg.JWTSecret))

	// Stored photo files
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Authentication routes (no auth required)
		r.Post("/register", handlers.Register(store))
		r.Post("/login", handlers.Login(store, cfg.JWTSecret))

		// Public marker views
		r.Get("/markers", handlers.ListActiveMarkers(store))
		r.Get("/markers/verified", handlers.ListVerifiedMarkers(store))
		r.Get("/markers/{id}", handlers.GetMarker(store))
		r.Get("/markers/{id}/photos", handlers.ListMarkerPhotos(store))
		r.Get("/markers/{id}/verification", handlers.VerificationStatus(store))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))

			r.Get("/users/me", handlers.Me(store))
			r.Patch("/users/me", handlers.UpdateProfile(store))
			r.Get("/users/me/points", handlers.MyPoints(store))
			r.Put("/users/me/fcm-token", handlers.UpdateFCMToken(store))

			r.Post("/markers", handlers.CreateMarker(store, wsHub))
			r.Get("/markers/mine", handlers.MyMarkers(store))
			r.Patch("/markers/{id}/status", handlers.UpdateMarkerStatus(store, wsHub))
			r.Delete("/markers/{id}", handlers.DeleteMarker(store, images, wsHub))
			r.Post("/markers/{id}/photos", handlers.UploadPhoto(store, images, worker, cfg.MaxUploadBytes))

			r.Get("/points/history", handlers.PointHistory(store))
			r.Get("/points/statistics", handlers.PointStatistics(points))

			r.Post("/rewards/exchange", handlers.Exchange(rewards, store, fcmService))
			r.Get("/rewards", handlers.ListRewards(rewards))
			r.Get("/rewards/{id}", handlers.GetReward(rewards))

			r.Get("/pins", handlers.ListPins(rewards))
			r.Post("/pins/redeem", handlers.RedeemPin(rewards))
		})
	})

	log.Printf("🌐 Server listening on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
