package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balepos/internal/auth"
	"balepos/internal/checkout"
	"balepos/internal/config"
	"balepos/internal/database"
	"balepos/internal/handlers"
	"balepos/internal/middleware"
	"balepos/internal/mirror"
	"balepos/internal/models"
	"balepos/internal/realtime"
	"balepos/internal/store"
	"balepos/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("logger init failed:", err)
	}
	defer logger.Sync()

	auth.Init(cfg.JWTSecret)

	db, err := database.Connect(cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("bad REDIS_URL", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	carts := checkout.NewCartRepository(redisClient, cfg.CartTTL)

	hub := realtime.NewHub(logger)
	s := store.New(db, logger, hub)

	// The shop's own console gets approved on boot so the first login is
	// never locked out by the device gate.
	hostID := utils.HostDeviceID()
	if _, err := s.RegisterDevice(context.Background(), hostID, "shop console", "server"); err != nil {
		logger.Warn("host device registration failed", zap.Error(err))
	} else if _, err := s.SetDeviceStatus(context.Background(), hostID, models.DeviceApproved); err != nil {
		logger.Warn("host device approval failed", zap.Error(err))
	}

	flusherCtx, stopFlusher := context.WithCancel(context.Background())
	flusher := store.NewFlusher(s, mirror.NewClient(cfg.MirrorURL, cfg.MirrorAPIKey), logger, cfg.MirrorInterval)
	go flusher.Run(flusherCtx)

	h := handlers.New(s, carts, logger, cfg)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Device-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)

	// Device enrollment must bypass the gate: a terminal that is not
	// approved yet has no other way in.
	r.POST("/devices/register", h.RegisterDevice)
	r.GET("/devices/:device_id/status", h.DeviceStatus)

	// Only opens if we explicitly allow it in .env
	if cfg.AllowRegistration {
		r.POST("/register", h.Register)
		logger.Warn("registration route is OPEN, disable this in production")
	}

	r.GET("/ws", hub.Serve)

	api := r.Group("/api")
	api.Use(middleware.DeviceGate(s))
	api.Use(middleware.AuthMiddleware())
	{
		// STAFF AND ADMIN
		api.GET("/bales", h.GetBales)
		api.GET("/bales/:id/stats", h.GetBaleStats)
		api.GET("/products", h.GetProducts)
		api.GET("/categories", h.GetCategories)
		api.GET("/customers", h.GetCustomers)
		api.GET("/sessions", h.GetSessions)
		api.POST("/sessions", h.StartSession)
		api.POST("/sessions/:session_id/end", h.EndSession)

		api.GET("/sessions/:session_id/orders", h.GetSessionOrders)
		api.PUT("/sessions/:session_id/orders/:username", h.UpdateOrderGroup)

		// The live-sell till
		api.GET("/livesell/:session_id/cart", h.GetCart)
		api.POST("/livesell/:session_id/cart/lines", h.AddToCart)
		api.DELETE("/livesell/:session_id/cart/lines/:index", h.RemoveCartLine)
		api.PUT("/livesell/:session_id/cart/customer", h.SetCartCustomer)
		api.PUT("/livesell/:session_id/cart/discount", h.SetCartDiscount)
		api.DELETE("/livesell/:session_id/cart", h.ClearCart)
		api.POST("/livesell/:session_id/checkout", h.Checkout)
		api.POST("/livesell/:session_id/edit/:username", h.EditCustomerOrder)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/ask", h.AskAI)

			admin.POST("/bales", h.AddBale)
			admin.PUT("/bales/:id", h.UpdateBale)
			admin.DELETE("/bales/:id", h.DeleteBale)

			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/categories", h.AddCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.PUT("/customers/:id", h.UpdateCustomer)
			admin.POST("/customers/:id/tickets", h.GrantVIPTickets)

			admin.DELETE("/orders/:id", h.DeleteOrder)

			admin.GET("/transactions", h.GetTransactions)
			admin.POST("/transactions", h.AddTransaction)
			admin.PUT("/transactions/:id", h.UpdateTransaction)
			admin.DELETE("/transactions/:id", h.DeleteTransaction)

			admin.GET("/settings", h.GetSettings)
			admin.PUT("/settings", h.UpdateSettings)
			admin.GET("/settings/sync", h.GetSyncStatus)

			admin.GET("/devices", h.GetDevices)
			admin.PUT("/devices/:device_id/status", h.SetDeviceStatus)

			admin.GET("/reports/summary", h.GetDashboardSummary)
			admin.GET("/reports/export/:kind", h.ExportCSV)
		}
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: r}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopFlusher()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
	redisClient.Close()
}
