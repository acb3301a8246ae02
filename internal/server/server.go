// Package server exposes the HTTP surface of the service: the submit
// endpoint the chat transport posts to, entry listing for the collection
// view and deck export/download. It also runs the retention sweep that
// expires old deck artifacts.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codeberg.org/snonux/wortschatz/internal"
	"codeberg.org/snonux/wortschatz/internal/anki"
	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/queue"
	"codeberg.org/snonux/wortschatz/internal/store"
	"codeberg.org/snonux/wortschatz/internal/submit"
)

// Server handles the HTTP API.
type Server struct {
	submitter *submit.Submitter
	store     *store.Store
	compiler  *anki.Compiler
	blobs     blob.Store
	log       *zap.SugaredLogger
}

// New creates a server. A nil logger disables logging.
func New(submitter *submit.Submitter, st *store.Store, compiler *anki.Compiler, blobs blob.Store, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		submitter: submitter,
		store:     st,
		compiler:  compiler,
		blobs:     blobs,
		log:       log.With("component", "server"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/submit", s.handleSubmit)
	api.GET("/entries/:owner", s.handleListEntries)
	api.POST("/decks/:owner", s.handleCompileDeck)
	api.GET("/decks/:owner/download", s.handleDownloadDeck)

	return router
}

// Run serves the API on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Infow("listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// RunRetentionSweep periodically expires exported deck artifacts older
// than ttl. It blocks until ctx is canceled.
func (s *Server) RunRetentionSweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.blobs.DeleteOlderThan(ctx, "exports", ttl)
			if err != nil {
				s.log.Warnw("retention sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.log.Infow("expired deck artifacts", "removed", removed)
			}
		}
	}
}

type submitRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id and text are required"})
		return
	}

	result, err := s.submitter.Submit(c.Request.Context(), req.OwnerID, req.Text)
	if err != nil {
		var verr *submit.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		case errors.Is(err, queue.ErrUnavailable):
			// The caller must learn the enqueue failed so nothing is lost
			// silently; 503 invites a retry.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enqueue failed, please retry"})
		default:
			s.log.Errorw("submit failed", "owner", req.OwnerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	switch result.Outcome {
	case submit.AlreadyExists:
		c.JSON(http.StatusOK, gin.H{
			"status": "already-exists",
			"query":  result.Query,
			"entry":  result.Entry,
		})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"status": "accepted",
			"query":  result.Query,
		})
	}
}

func (s *Server) handleListEntries(c *gin.Context) {
	owner := c.Param("owner")

	entries, err := s.store.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		s.log.Errorw("list entries failed", "owner", owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (s *Server) handleCompileDeck(c *gin.Context) {
	owner := c.Param("owner")

	key, err := s.compiler.Compile(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, anki.ErrEmptyCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no entries to export yet"})
			return
		}
		s.log.Errorw("deck compilation failed", "owner", owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"artifact": key})
}

// handleDownloadDeck compiles and streams the deck directly. Only the
// explicit compile endpoint stores an artifact, so repeated downloads do
// not accumulate export blobs for the retention sweep to chew through.
func (s *Server) handleDownloadDeck(c *gin.Context) {
	owner := c.Param("owner")

	data, _, err := s.compiler.CompileBytes(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, anki.ErrEmptyCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no entries to export yet"})
			return
		}
		s.log.Errorw("deck compilation failed", "owner", owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	filename := fmt.Sprintf("%s.apkg", internal.SanitizeFilename(owner))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", data)
}
