package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duobloom/garden/pkg/api"
	authproviders "github.com/duobloom/garden/pkg/auth/providers"
	"github.com/duobloom/garden/pkg/catalog"
	"github.com/duobloom/garden/pkg/game"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/queue"
	"github.com/duobloom/garden/pkg/repositories"
	"github.com/duobloom/garden/pkg/room"
	"github.com/duobloom/garden/pkg/store"
	"github.com/duobloom/garden/pkg/version"
	"github.com/duobloom/garden/pkg/workers"
	"github.com/joho/godotenv"
)

func main() {
	port := flag.Int("port", 8888, "Port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	storeType := flag.String("store", "memory", "Room store type (memory, firestore)")
	firestoreProject := flag.String("firestore-project", "", "Firestore project ID")
	repoType := flag.String("repo", "none", "Archive repository type (none, sqlite, postgres)")
	sqlitePath := flag.String("sqlite-path", "garden.db", "Path to the SQLite database file")
	authType := flag.String("auth", "firebase", "Auth provider type (firebase, static)")
	certFile := flag.String("cert-file", "", "Path to a TLS certificate file")
	keyFile := flag.String("key-file", "", "Path to a TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameCatalog, err := catalog.Default()
	if err != nil {
		panic(fmt.Sprintf("Failed to load catalog: %v", err))
	}

	var roomStore store.Store
	switch *storeType {
	case "memory":
		roomStore = store.NewMemoryStore()
	case "firestore":
		if *firestoreProject == "" {
			panic("-firestore-project must be set when using the firestore store")
		}
		roomStore, err = store.NewFirestoreStore(ctx, *firestoreProject)
		if err != nil {
			panic(fmt.Sprintf("Failed to create firestore store: %v", err))
		}
	default:
		panic(fmt.Sprintf("Unknown store type: %s", *storeType))
	}
	defer roomStore.Close()

	var authProvider authproviders.AuthProvider
	switch *authType {
	case "firebase":
		if *firestoreProject == "" {
			panic("-firestore-project must be set when using the firebase auth provider")
		}
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, *firestoreProject, os.Getenv("FIREBASE_API_KEY"))
		if err != nil {
			panic(fmt.Sprintf("Failed to create firebase auth provider: %v", err))
		}
	case "static":
		authProvider = authproviders.NewStaticAuthProvider(map[string]authproviders.TokenClaims{
			"dev": {UID: "dev", Name: "Dev"},
		})
		log.Warn("Using static auth provider, do not use in production")
	default:
		panic(fmt.Sprintf("Unknown auth provider type: %s", *authType))
	}

	var archiveQueue queue.Queue
	switch *repoType {
	case "none":
		log.Info("Snapshot archiving disabled")
	case "sqlite", "postgres":
		var repository repositories.Repository
		if *repoType == "sqlite" {
			repository, err = repositories.NewSQLiteRepository(ctx, *sqlitePath)
		} else {
			connStr := os.Getenv("DATABASE_URL")
			if connStr == "" {
				panic("DATABASE_URL environment variable must be set")
			}
			repository, err = repositories.NewPostgresRepository(ctx, connStr)
		}
		if err != nil {
			panic(fmt.Sprintf("Failed to create repository: %v", err))
		}
		defer repository.Close(ctx)

		archiveQueue = queue.NewInMemoryQueue(1000)
		archiveWorker := workers.NewArchiveWorker(workers.NewArchiveWorkerOptions{
			Repository:   repository,
			ArchiveQueue: archiveQueue,
			Interval:     10 * time.Second,
		})
		go archiveWorker.Start(ctx)
	default:
		panic(fmt.Sprintf("Unknown repository type: %s", *repoType))
	}

	engine := game.NewEngine(game.NewEngineOptions{
		Catalog: gameCatalog,
	})

	hub := room.NewHub(room.NewHubOptions{
		Ctx:          ctx,
		Store:        roomStore,
		Engine:       engine,
		ArchiveQueue: archiveQueue,
	})

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		TLS:          tlsConfig,
		AuthProvider: authProvider,
		Hub:          hub,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}
