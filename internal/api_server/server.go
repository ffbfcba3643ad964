package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leosunmo/zapchi"
	chiprometheus "github.com/toshi0607/chi-prometheus"
	"go.uber.org/zap"

	"github.com/presentai/presentai/internal/config"
	handlers "github.com/presentai/presentai/internal/handlers/v1alpha1"
	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg         *config.Config
	jobSrv      *service.JobService
	questionSrv *service.QuestionService
	listener    net.Listener
}

// New returns a new instance of the presentai API server.
func New(
	cfg *config.Config,
	jobService *service.JobService,
	questionService *service.QuestionService,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:         cfg,
		jobSrv:      jobService,
		questionSrv: questionService,
		listener:    listener,
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := chiprometheus.New("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Service.CorsOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		zapchi.Logger(zap.S(), "router_api"),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", healthHandler)

	h := handlers.NewServiceHandler(s.jobSrv, s.questionSrv, s.cfg.Service.MaxUploadBytes)
	h.RegisterRoutes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
