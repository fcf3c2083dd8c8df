package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"grievchat/infrastructure/cache"
	"grievchat/infrastructure/db"
	"grievchat/infrastructure/ws"
	httpHandler "grievchat/internal/delivery/http"
	wsDelivery "grievchat/internal/delivery/websocket"
	"grievchat/internal/repository"
	"grievchat/internal/usecase"
	"grievchat/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("godotenv: no .env file loaded")
	}

	ctx := context.Background()

	mongoUri := os.Getenv("MONGODB_URI")
	mongoDbName := os.Getenv("MONGODB_DATABASE")
	if mongoDbName == "" {
		mongoDbName = "grievance_portal"
	}

	mongoDb, err := db.NewMongoStore(ctx, mongoUri, mongoDbName)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connect failed")
	}
	defer mongoDb.Close(ctx)

	log.Info().Str("database", mongoDbName).Msg("connected to MongoDB")

	complaintRepo := repository.NewComplaintRepository(*mongoDb.DB)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production"
		log.Warn().Msg("using default JWT secret; set JWT_SECRET in .env for production")
	}
	jwtManager := jwt.NewJWTManager(jwtSecret, 24*time.Hour)

	chatUc := usecase.NewChatUsecase(complaintRepo)
	closureUc := usecase.NewClosureUsecase(complaintRepo)

	registry := ws.NewRoomRegistry()

	// A single in-memory process owns every room by default; the Redis hub
	// bridges room events across instances when scale-out is needed.
	redisAddr := os.Getenv("REDIS_ADDR")

	var hub ws.IHub
	if redisAddr != "" {
		serverID := os.Getenv("SERVER_ID")
		if serverID == "" {
			serverID = "server-1"
		}
		log.Info().Str("addr", redisAddr).Str("serverId", serverID).Msg("using Redis-bridged hub")
		hub = ws.NewRedisHub(redisAddr, serverID, registry, log)
	} else {
		log.Info().Msg("using in-memory hub (single server)")
		hub = ws.NewHub(registry, log)
	}

	go hub.Run()

	buffer := cache.NewMessageBuffer(0)

	requireDurable := os.Getenv("CHAT_REQUIRE_DURABLE") == "true"

	websocketH := wsDelivery.NewWebsocketHandler(hub, chatUc, closureUc, buffer, jwtManager, requireDurable, log)
	hub.SetOnClientUnregister(websocketH.HandleClientDisconnect)

	httpH := httpHandler.NewHttpHandler(chatUc, closureUc, complaintRepo, websocketH, log)
	authMiddleware := httpHandler.NewAuthMiddleware(jwtManager)

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	httpHandler.MapHttpRoutes(router, httpH, websocketH, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("HTTP server running")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
