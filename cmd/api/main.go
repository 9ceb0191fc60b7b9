package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"pairchat/internal/adapter/api"
	"pairchat/internal/adapter/api/handler"
	apimiddleware "pairchat/internal/adapter/api/middleware"
	"pairchat/internal/adapter/api/router"
	"pairchat/internal/adapter/repository"
	domainrepo "pairchat/internal/domain/repository"
	"pairchat/internal/domain/entity"
	"pairchat/internal/infrastructure/firebase"
	"pairchat/internal/infrastructure/storage"
	"pairchat/internal/infrastructure/websocket"
	"pairchat/internal/notification"
	"pairchat/internal/usecase"
	"pairchat/pkg/clock"
	"pairchat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var (
		chatStore domainrepo.ChatStore
		userRepo  domainrepo.UserRepository
		identity  usecase.IdentityProvider
		verifier  apimiddleware.TokenVerifier
	)

	switch cfg.StoreBackend {
	case "firestore":
		opt := credentialsOption()

		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}

		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		firebaseAuth := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)

		chatStore = repository.NewFirestoreChatStore(firestoreClient)
		userRepo = repository.NewFirestoreUserRepository(firestoreClient)
		identity = firebaseAuth
		verifier = firebaseAuth

	default:
		log.Printf("Using in-memory store backend (development)")

		devAuth := firebase.NewDevAuth(cfg.DevTokenSecret)

		chatStore = repository.NewMemoryChatStore(clock.System())
		userRepo = repository.NewMemoryUserRepository()
		identity = devAuth
		verifier = devAuth

		seedDevUsers(ctx, userRepo)
	}

	var uploader usecase.FileUploader
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		uploader = storageClient
	}

	notifier := notification.NewNotifier(chatStore)

	wsManager := websocket.NewManager(chatStore, notifier)
	wsManager.Start(ctx)

	authUseCase := usecase.NewAuthUseCase(userRepo, identity)
	userUseCase := usecase.NewUserUseCase(userRepo, identity, uploader)
	chatUseCase := usecase.NewChatUseCase(chatStore, userRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	authHandler := handler.NewAuthHandler(authUseCase)
	userHandler := handler.NewUserHandler(userUseCase)
	chatHandler := handler.NewChatHandler(chatUseCase)
	fileHandler := handler.NewFileHandler(uploader)
	wsHandler := handler.NewWebSocketHandler(wsManager, verifier)

	e.GET("/health", handler.HealthCheck)

	router.SetupAuthRouter(e, authHandler, authMiddleware)
	router.SetupUserRouter(e, userHandler, authMiddleware)
	router.SetupChatRouter(e, chatHandler, authMiddleware)
	router.SetupFileRouter(e, fileHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

func credentialsOption() option.ClientOption {
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(serviceAccountJSON))
	}

	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		serviceAccountPath = "./service-account.json"
	}
	log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
	return option.WithCredentialsFile(serviceAccountPath)
}

// seedDevUsers mirrors the demo directory the mobile client ships with, so a
// fresh development server has someone to talk to.
func seedDevUsers(ctx context.Context, userRepo domainrepo.UserRepository) {
	now := time.Now()
	for _, u := range []*entity.User{
		{ID: "1", Email: "test@example.com", DisplayName: "Test User"},
		{ID: "2", Email: "alice@example.com", DisplayName: "Alice"},
		{ID: "3", Email: "bob@example.com", DisplayName: "Bob"},
	} {
		u.Status = entity.PresenceOffline
		u.CreatedAt = now
		u.UpdatedAt = now
		if err := userRepo.Create(ctx, u); err != nil {
			log.Printf("Failed to seed user %s: %v", u.ID, err)
		}
	}
}
