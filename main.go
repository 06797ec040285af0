package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pranavsingh431/thermo-final/config"
	"github.com/Pranavsingh431/thermo-final/database"
	"github.com/Pranavsingh431/thermo-final/handlers"
	"github.com/Pranavsingh431/thermo-final/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize the inspection service
	inspectionService, err := service.NewService(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	if err := inspectionService.Start(); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}

	// Initialize handlers
	h := handlers.NewHandlers(cfg, inspectionService)

	// Setup HTTP server
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadMB << 20

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// API routes
	api := router.Group("/api/v3")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/upload", h.UploadImage)
		api.POST("/upload_batch", h.UploadBatch)
		api.GET("/reports", h.ListReports)
		api.GET("/reports/:id", h.GetReport)
		api.DELETE("/reports/:id", h.DeleteReport)
		api.DELETE("/reports", h.DeleteAllReports)
		api.POST("/reports/:id/regenerate", h.RegenerateNarrative)
		api.GET("/towers", h.GetTowers)
		api.GET("/towers/geojson", h.GetTowersGeoJSON)
	}

	// Stored artifacts and Prometheus metrics
	router.Static("/uploads", cfg.UploadDir)
	router.Static("/reports_pdf", cfg.ReportDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop background jobs and wait for in-flight alerts
	inspectionService.Stop()

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
