package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"sprinklex-server/confs"
	"sprinklex-server/handlers"
	httpHandler "sprinklex-server/handlers/http"
	"sprinklex-server/middlewares"
	"sprinklex-server/repositories"
	"sprinklex-server/services"
	"sprinklex-server/usecases"
	"sprinklex-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	app       *gin.Engine
	cfg       *confs.Config
	stores    *repositories.Stores
	hub       *ws.Manager
	monitor   *services.DeviceMonitor
	processor *services.DataProcessor
}

// NewServer builds every component on top of stores and registers the routes.
func NewServer(cfg *confs.Config, stores *repositories.Stores) *Server {
	hub := ws.NewManager()
	processor := services.NewDataProcessor(stores.Readings, cfg.FlushInterval)
	monitor := services.NewDeviceMonitor(services.MonitorConfig{
		Candidates:      cfg.DiscoveryURLs,
		Timeout:         cfg.DeviceTimeout,
		WaterSources:    cfg.WaterSources,
		RefreshInterval: cfg.RefreshInterval,
		SensorInterval:  cfg.SensorInterval,
		CalibratePause:  cfg.CalibratePause,
	}, stores.Records, stores.Commands, processor, hub)

	s := &Server{
		app:       gin.Default(),
		cfg:       cfg,
		stores:    stores,
		hub:       hub,
		monitor:   monitor,
		processor: processor,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	config := cors.DefaultConfig()
	config.AllowWildcard = true
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" {
			config.AllowAllOrigins = true
		}
	}
	if !config.AllowAllOrigins {
		config.AllowOrigins = s.cfg.CORSOrigins
	}
	config.AllowCredentials = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	s.app.Use(cors.New(config))

	accounts := usecases.NewAccountsUseCase(s.stores.Users, s.stores.Records, []byte(s.cfg.JWTSecret), s.cfg.TokenTTL)
	records := usecases.NewRecordsUseCase(s.stores.Records)

	proxyHandler := httpHandler.NewProxyHandler(s.cfg.ESPURL, s.cfg.ProxyTimeout, s.monitor, s.stores.Commands)
	deviceHandler := httpHandler.NewDeviceHandler(s.monitor, s.stores.Commands)
	authHandler := httpHandler.NewAuthHandler(accounts)
	recordHandler := httpHandler.NewRecordHandler(records)
	cacheHandler := handlers.NewCacheHandler(s.processor)
	wsHandler := handlers.NewWSHandler(s.hub, s.monitor)

	requireUser := middlewares.AuthMiddleware(accounts)

	api := s.app.Group("/api")
	{
		api.GET("/health", proxyHandler.Health)

		// Relay used by the dashboard's sprinkler controls
		esp := api.Group("/esp8266")
		{
			esp.GET("/toggle", proxyHandler.Toggle)
			esp.GET("/data", proxyHandler.SensorData)
		}

		dev := api.Group("/device")
		{
			dev.GET("", deviceHandler.GetDevice)
			dev.POST("/discover", deviceHandler.Discover)
			dev.POST("/refresh", deviceHandler.Refresh)
			dev.POST("/water-source", deviceHandler.ChangeWaterSource)
			dev.POST("/calibrate", deviceHandler.Calibrate)
			dev.PUT("/token", deviceHandler.SetToken)
			dev.GET("/water-sources", deviceHandler.GetWaterSources)
			dev.GET("/commands", deviceHandler.GetCommands)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireUser, authHandler.Logout)
		}

		profile := api.Group("/profile", requireUser)
		{
			profile.GET("", authHandler.GetProfile)
			profile.PUT("", authHandler.UpdateProfile)
		}

		recs := api.Group("/records", requireUser)
		{
			recs.GET("", recordHandler.ListRecords)
			recs.GET("/:key", recordHandler.GetRecord)
			recs.PUT("/:key", recordHandler.PutRecord)
			recs.DELETE("/:key", recordHandler.DeleteRecord)
		}

		cache := api.Group("/cache")
		{
			cache.POST("/process", cacheHandler.ProcessCache)
			cache.GET("/data", cacheHandler.GetAllCachedData)
			cache.GET("/stats", cacheHandler.GetCacheStats)
		}

		api.GET("/ws/subscribers", wsHandler.GetSubscribers)
	}

	s.app.GET("/ws", wsHandler.HandleDashboardWS)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Start runs the background workers and serves HTTP until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.processor.Start(ctx)
	s.monitor.Start(ctx)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + s.cfg.Port,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ESP8266 Proxy Server running on port %s", s.cfg.Port)
		log.Printf("Frontend should call: /api/esp8266/toggle")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Printf("shutting down")
	return srv.Shutdown(shutdownCtx)
}
