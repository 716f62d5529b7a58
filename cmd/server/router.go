// List of all REST API endpoints being used by Codepad can be found here.

package main

import (
	"Codepad/internal/config"
	"Codepad/internal/metrics"
	"Codepad/internal/presence"
	"Codepad/internal/room"
	"Codepad/internal/ws"
	"Codepad/pkg/globalcontext"
	"Codepad/pkg/log"
	"Codepad/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Router(router *gin.Engine, cfg config.Config, a *app, logger log.Logger) {
	router.Use(middlewares.CORSMiddleware(cfg.CORSOrigin))
	router.Use(middlewares.CorrelationMiddleware(logger))
	router.Use(globalcontext.UniqueIDMiddleware(logger))

	// This is the route to default path
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to Codepad!")
	})

	ws.APIHandlers(router, a.hub, ws.Options{CORSOrigin: cfg.CORSOrigin, AuthSecret: cfg.AuthAccessSecret}, logger)
	room.APIHandlers(router, a.hub, a.roomRepo, logger)
	presence.APIHandlers(router, a.notifier, a.presenceRepo, logger)
	metrics.APIHandlers(router, a.metrics, logger)
}
