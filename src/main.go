package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/lpernett/godotenv"
	"github.com/redis/go-redis/v9"

	"photogram_services/src/datastore"
	h "photogram_services/src/handlers"
	"photogram_services/src/inits"
	"photogram_services/src/logger"
	"photogram_services/src/viewcache"
)

func envString(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		logger.Warnf("Ignoring unparseable %v=%v", key, value)
	}
	return fallback
}

func main() {
	// Local development keeps configuration in a .env file; deployments set
	// real environment variables and have no file to load.
	_ = godotenv.Load()

	logger.Init(envString("APP_ENV", "development") != "production")
	defer logger.Sync()

	ctx := context.Background()

	credentialsFile := os.Getenv("GCP_CREDENTIALS_FILE")

	// Firestore Initialization
	firestoreClient, err := inits.CreateFirestoreClient(ctx, envString("GCP_PROJECT_ID", "photogram-dev"), credentialsFile)
	if err != nil {
		logger.Panicf("Failed to create firestore client: %v", err)
	}
	defer firestoreClient.Close()
	store := datastore.NewFirestoreStore(firestoreClient)

	// Redis Initialization
	rdb := redis.NewClient(&redis.Options{
		Addr:     envString("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	cache := viewcache.New(rdb, envDuration("QUERY_CACHE_TTL", viewcache.DefaultTTL))

	// Cloud Storage Initialization
	storageClient, err := inits.CreateStorageClient(ctx, credentialsFile)
	if err != nil {
		logger.Panicf("Failed to create storage client: %v", err)
	}
	defer storageClient.Close()
	photoBucket := envString("PHOTO_BUCKET", "photogram-user-photos")

	// OpenSearch Initialization
	searchClient, err := inits.CreateOpenSearchClient(
		[]string{envString("OPENSEARCH_URL", "http://localhost:9200")},
		os.Getenv("OPENSEARCH_USER"),
		os.Getenv("OPENSEARCH_PASSWORD"),
	)
	if err != nil {
		logger.Panicf("Failed to create opensearch client: %v", err)
	}
	inits.InitOpenSearch(ctx, store, searchClient)

	// Firebase Messaging Initialization: push is optional, the send helper
	// no-ops on a nil client.
	messagingClient, err := inits.CreateMessagingClient(ctx, credentialsFile)
	if err != nil {
		logger.Errorf("Firebase messaging unavailable, continuing without push: %v", err)
		messagingClient = nil
	}

	h.MutationTimeout = envDuration("MUTATION_TIMEOUT", h.MutationTimeout)

	// Auth Middleware Initialization
	checkJWT, err := inits.EnsureValidToken(
		envString("AUTH_ISSUER_URL", "https://photogram.us.auth0.com/"),
		[]string{envString("AUTH_AUDIENCE", "photogram-services")},
	)
	if err != nil {
		logger.Panicf("Failed to set up token validation: %v", err)
	}

	//Server Starting String
	serverString := fmt.Sprintf("%v:%v", envString("HOST", "0.0.0.0"), envString("PORT", "2525"))

	//Route Register
	router := mux.NewRouter()
	router.HandleFunc("/", h.GETHandlerRoot)
	router.HandleFunc("/.well-known/apple-app-site-association", h.AssociatedDomains)
	router.PathPrefix("/image").Handler(h.ContentEndpointHandler(ctx, storageClient, photoBucket))
	router.PathPrefix("/upload").Handler(h.ContentEndpointHandler(ctx, storageClient, photoBucket))
	router.PathPrefix("/ws").Handler(checkJWT(h.WebSocketEndpointHandler(ctx, cache)))
	router.PathPrefix("/user").Handler(checkJWT(h.UserEndpointHandler(ctx, store, cache, searchClient, messagingClient)))
	router.PathPrefix("/photo").Handler(checkJWT(h.PhotoEndpointHandler(ctx, store, cache, messagingClient)))
	router.PathPrefix("/feed").Handler(checkJWT(h.FeedEndpointHandler(ctx, store, cache)))
	router.PathPrefix("/search").Handler(checkJWT(h.SearchEndpointHandler(ctx, searchClient)))
	router.PathPrefix("/notifications").Handler(checkJWT(h.NotificationsEndpointHandler(ctx, store)))
	router.PathPrefix("/fcm").Handler(checkJWT(h.FirebaseEndpointHandler(ctx, store)))

	//Start Server
	logger.Infof("Server is starting on %v...", serverString)
	err = http.ListenAndServe(serverString, router)
	if err != nil {
		logger.Panicf("Error starting the server: %v", err)
	}
}
