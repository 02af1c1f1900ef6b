package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/relay"
	"github.com/vovakirdan/portalchat/internal/store"
)

// NewServer builds the relay HTTP server. /ws is served by the WebSocket
// handler directly; health and roster routes go through the gin router.
// Roster routes are only mounted when st is non-nil.
func NewServer(hub *relay.Hub, st store.RosterStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	if st != nil {
		roster := NewRosterHandlers(st, logger)
		api := router.Group("/api")
		api.GET("/doctors/:id", roster.GetDoctor)
		api.GET("/doctors/:id/patients", roster.ListPatients)
		api.GET("/patients/:id", roster.GetPatient)
		api.GET("/patients/:id/doctors", roster.ListDoctors)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
