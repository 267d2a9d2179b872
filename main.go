package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Araz9999/naxtap-sub005/global"
	"github.com/Araz9999/naxtap-sub005/logger"
	"github.com/Araz9999/naxtap-sub005/middleware"
	"github.com/Araz9999/naxtap-sub005/service/notify"
	"github.com/Araz9999/naxtap-sub005/service/realtime"
	"github.com/Araz9999/naxtap-sub005/service/realtime/handlers"
	"github.com/Araz9999/naxtap-sub005/service/storage"
	"github.com/Araz9999/naxtap-sub005/tools/safe"
	"github.com/Araz9999/naxtap-sub005/tools/security"
)

func main() {
	cfg := global.LoadGateway()

	verifier := security.NewVerifier(security.DefaultOptions(cfg.JWTSecret))

	// redis presence mirror is optional; without it presence stays in-memory
	var sink realtime.PresenceSink
	var redisPresence *storage.RedisPresence
	if cfg.RedisAddr != "" {
		rp, err := storage.NewRedisPresence(storage.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			GatewayID: cfg.GatewayID,
		})
		if err != nil {
			logger.Errorf("redis presence unavailable, continuing without: %v", err)
		} else {
			sink = rp
			redisPresence = rp
		}
	}

	gw := realtime.NewGateway(realtime.Config{
		GatewayID:    cfg.GatewayID,
		NodeID:       cfg.NodeID,
		PingInterval: cfg.PingInterval,
		WriteWait:    cfg.WriteWait,
		SendBuffer:   cfg.SendBuffer,
	}, verifier, sink)
	gw.RegisterHandlers(handlers.All()...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sink != nil {
		safe.Go(func() { gw.Presence().RunSinkRefresh(ctx, time.Minute) })
	}

	// push bridge is optional; without it pushes come only from in-process calls
	var bridge *notify.Bridge
	if cfg.NATSServers != "" {
		b, err := notify.NewBridge(notify.Config{
			Servers: cfg.NATSServers,
			Name:    "naxtap-gateway-" + cfg.GatewayID,
		}, gw)
		if err != nil {
			logger.Errorf("nats bridge unavailable, continuing without: %v", err)
		} else if err := b.Start(); err != nil {
			logger.Errorf("nats bridge start: %v", err)
			b.Close()
		} else {
			bridge = b
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Origin(allowedOrigins()...))

	r.GET("/ws", gw.HandleWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": cfg.GatewayID})
	})

	// read-only presence surface for the HTTP side of the marketplace
	api := r.Group("/api/presence")
	api.GET("/online", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": gw.Presence().OnlineUsers()})
	})
	api.GET("/users/:id", func(c *gin.Context) {
		id := c.Param("id")
		c.JSON(http.StatusOK, gin.H{
			"userId":      id,
			"online":      gw.Presence().IsUserOnline(id),
			"connections": gw.Presence().UserConnCount(id),
		})
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	safe.Go(func() {
		logger.Infof("gateway %s listening on %s", cfg.GatewayID, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("listen: %v", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()
	if bridge != nil {
		bridge.Close()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if redisPresence != nil {
		_ = redisPresence.Close()
	}
}

func allowedOrigins() []string {
	raw := os.Getenv("NAXTAP_ALLOWED_ORIGINS")
	if raw == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
