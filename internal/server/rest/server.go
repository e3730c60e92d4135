// Package rest exposes the filevault services over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Sessions interface {
	Login(ctx context.Context, encodedCredentials string) (string, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (string, error)
}

type Users interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type Files interface {
	Create(ctx context.Context, userID string, req *services.CreateFileRequest) (*models.File, error)
	Get(ctx context.Context, userID, fileID string) (*models.File, error)
	List(ctx context.Context, userID string, filter services.ListFilter) ([]*models.File, error)
	SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*models.File, error)
	ResolveContent(ctx context.Context, fileID, token, size string) (*services.Content, error)
}

type AppStatus interface {
	Status(ctx context.Context) services.Status
	Stats(ctx context.Context) (services.Stats, error)
}

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	sessions        Sessions
	users           Users
	files           Files
	app             AppStatus
	logger          logging.Logger
}

func NewHTTPServer(address string, shutdownTimeout time.Duration, l logging.Logger,
	ss Sessions, us Users, fs Files, as AppStatus) *HTTPServer {
	return &HTTPServer{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		sessions:        ss,
		users:           us,
		files:           fs,
		app:             as,
		logger:          l.With("module", "http_server"),
	}
}

// Handler builds the router.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/status", s.getStatus)
	r.GET("/stats", s.getStats)

	r.POST("/users", s.postUser)
	r.GET("/users/me", s.authRequired(), s.getMe)

	r.GET("/connect", s.getConnect)
	r.GET("/disconnect", s.getDisconnect)

	r.GET("/files/:id/data", s.getFileData)

	authed := r.Group("/files", s.authRequired())
	authed.POST("", s.postFile)
	authed.GET("", s.getFiles)
	authed.GET("/:id", s.getFile)
	authed.PUT("/:id/publish", s.putPublish)
	authed.PUT("/:id/unpublish", s.putUnpublish)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
