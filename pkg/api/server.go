package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/duobloom/garden/pkg/api/handlers"
	"github.com/duobloom/garden/pkg/api/middleware"
	authproviders "github.com/duobloom/garden/pkg/auth/providers"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/room"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Hub          *room.Hub
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	router := mux.NewRouter()
	router.Handle("/rooms", authMiddleware(handlers.HandleCreateRoom(opts.Hub))).Methods(http.MethodPost)
	router.HandleFunc("/rooms/{code}", handlers.HandleGetRoom(opts.Hub)).Methods(http.MethodGet)
	router.Handle("/rooms/{code}/join", authMiddleware(handlers.HandleJoinRoom(opts.Hub))).Methods(http.MethodPost)
	router.HandleFunc("/rooms/{code}/likes", handlers.HandleLikeRoom(opts.Hub)).Methods(http.MethodPost)
	router.HandleFunc("/rooms/{code}/ws", handlers.HandleRoomSocket(opts.Hub, opts.AuthProvider)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
