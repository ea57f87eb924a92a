// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// admarket-gateway is the public read edge in front of an admarketd node.
// It proxies marketplace queries, and submits view-tracking instructions on
// behalf of anonymous visitors using a service key, with per-client rate
// limiting so a single scraper cannot inflate view counts.
package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/adxyz/admarket/pkg/client"
	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/keystore"
	"github.com/adxyz/admarket/pkg/log"
)

var (
	port    = flag.String("port", "8081", "gateway listen port")
	env     = flag.String("env", "development", "environment (development/production)")
	nodeURL = flag.String("node", "http://localhost:8080", "admarketd base URL")
	keyPath = flag.String("key", "", "service keystore file (generated in memory when empty)")
	viewQPS = flag.Float64("view-qps", 2, "per-client view tracking rate limit")
)

func main() {
	flag.Parse()

	logger := log.NewLogger("admarket-gateway")
	defer logger.Sync()

	key, err := loadServiceKey()
	if err != nil {
		logger.Fatal("failed to load service key", log.Error(err))
	}

	gw := &Gateway{
		client:   client.New(*nodeURL, key),
		limiters: make(map[string]*rate.Limiter),
		log:      logger,
	}

	srv := &http.Server{
		Addr:    ":" + *port,
		Handler: gw.setupRouter(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("gateway failed", log.Error(err))
		}
	}()

	logger.Info("gateway started",
		log.String("port", *port),
		log.String("node", *nodeURL),
		log.String("env", *env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gateway")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", log.Error(err))
	}
}

// loadServiceKey reads the gateway's signing key from the keystore file, or
// generates an ephemeral one for development when no file is configured.
func loadServiceKey() (ed25519.PrivateKey, error) {
	if *keyPath == "" {
		return keystore.GenerateKey()
	}
	return keystore.Load(*keyPath, os.Getenv("ADMARKET_KEY_PASSWORD"))
}

// Gateway holds the node client and per-client view limiters.
type Gateway struct {
	client *client.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	log log.Logger
}

func (g *Gateway) limiterFor(clientIP string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	lim, ok := g.limiters[clientIP]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(*viewQPS), int(*viewQPS)+1)
		g.limiters[clientIP] = lim
	}
	return lim
}

func (g *Gateway) setupRouter() *gin.Engine {
	if *env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000", "https://admarket.xyz", "https://app.admarket.xyz"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "time": time.Now().Unix()})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/slots", g.listSlots)
		api.GET("/slots/:id", g.getSlot)
		api.POST("/slots/:id/view", g.trackView)
		api.GET("/ads", g.listAds)
		api.GET("/escrows/:id", g.getEscrow)
		api.GET("/balances/:id", g.getBalance)
		api.GET("/stats", g.getStats)
	}

	return router
}

func (g *Gateway) listSlots(c *gin.Context) {
	q := client.SlotQuery{
		Owner:      c.Query("owner"),
		Category:   c.Query("category"),
		OnlyActive: c.Query("active") == "true",
	}
	slots, err := g.client.Slots(c.Request.Context(), q)
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"slots": slots, "total": len(slots)})
}

func (g *Gateway) getSlot(c *gin.Context) {
	id, err := ids.FromString(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad slot id"})
		return
	}
	slot, err := g.client.Slot(c.Request.Context(), id)
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, slot)
}

// trackView records one ad view through the service key
func (g *Gateway) trackView(c *gin.Context) {
	if !g.limiterFor(c.ClientIP()).Allow() {
		c.JSON(429, gin.H{"error": "view rate limit exceeded"})
		return
	}

	id, err := ids.FromString(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad slot id"})
		return
	}
	if err := g.client.IncrementView(c.Request.Context(), id); err != nil {
		g.log.Warn("view tracking failed", log.Stringer("slot", id), log.Error(err))
		c.JSON(apiStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "recorded"})
}

func (g *Gateway) listAds(c *gin.Context) {
	ads, err := g.client.Ads(c.Request.Context(), c.Query("owner"))
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"ads": ads, "total": len(ads)})
}

func (g *Gateway) getEscrow(c *gin.Context) {
	id, err := ids.FromString(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad escrow id"})
		return
	}
	esc, err := g.client.Escrow(c.Request.Context(), id)
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, esc)
}

func (g *Gateway) getBalance(c *gin.Context) {
	id, err := ids.FromString(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "bad account id"})
		return
	}
	balance, err := g.client.Balance(c.Request.Context(), id)
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"balance": balance})
}

func (g *Gateway) getStats(c *gin.Context) {
	stats, err := g.client.Stats(c.Request.Context())
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, stats)
}

// apiStatus maps node client errors onto gateway responses, preserving the
// node's status for API errors and treating everything else as upstream failure.
func apiStatus(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "NotFound":
			return 404
		case "Unauthorized", "InvalidSignature":
			return 403
		}
		return 422
	}
	return 502
}
