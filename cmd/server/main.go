package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"DF-FORMS/internal/cache"
	"DF-FORMS/internal/config"
	"DF-FORMS/internal/database"
	"DF-FORMS/internal/export"
	"DF-FORMS/internal/handlers"
	"DF-FORMS/internal/logging"
	"DF-FORMS/internal/middleware"
	"DF-FORMS/internal/models"
	"DF-FORMS/internal/services"
	"DF-FORMS/internal/storage"
	"DF-FORMS/internal/store"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence
	var (
		st store.Store
		db *gorm.DB
	)
	if cfg.Database.Type == "memory" {
		logrus.Warn("Using in-memory store; data is lost on restart")
		st = store.NewMemoryStore()
	} else {
		db, err = database.Open(cfg.Database)
		if err != nil {
			logrus.Fatalf("Failed to initialize database: %v", err)
		}
		if err := database.Migrate(db, cfg.Database.Type); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		st = store.NewGormStore(db)
		logrus.WithField("type", cfg.Database.Type).Info("Database initialized")
	}

	// Artifact storage
	var (
		storageClient      storage.StorageClient
		localStorageClient *storage.LocalStorageClient
	)
	switch cfg.Storage.Type {
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			logrus.Fatalf("Failed to initialize GCS client: %v", err)
		}
		storageClient = client
		logrus.WithField("bucket", cfg.GCS.BucketName).Info("GCS storage initialized")
	case "s3":
		client, err := storage.NewS3Client(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			logrus.Fatalf("Failed to initialize S3 client: %v", err)
		}
		storageClient = client
		logrus.WithField("bucket", cfg.S3.Bucket).Info("S3 storage initialized")
	default:
		client, err := storage.NewLocalStorageClient(cfg.Storage.LocalPath, cfg.Storage.LocalURL, cfg.Storage.SecretKey)
		if err != nil {
			logrus.Fatalf("Failed to initialize local storage client: %v", err)
		}
		storageClient = client
		localStorageClient = client
		logrus.WithFields(logrus.Fields{
			"path":     cfg.Storage.LocalPath,
			"base_url": cfg.Storage.LocalURL,
		}).Info("Local storage initialized")
	}
	defer storageClient.Close()

	// Export cache
	var (
		artifactCache cache.Cache
		valkeyClient  *redis.Client
	)
	switch cfg.Cache.Type {
	case "valkey":
		valkeyClient, err = cache.ConnectValkey(cfg.Cache.Host, cfg.Cache.Port, cfg.Cache.Password)
		if err != nil {
			logrus.Fatalf("Failed to connect to Valkey: %v", err)
		}
		artifactCache = cache.NewValkeyCache(valkeyClient, cfg.Cache.TTL)
	case "none":
		artifactCache = cache.Noop{}
	default:
		artifactCache = cache.NewMemoryCache(cfg.Cache.TTL)
	}

	// PDF backend is optional; HTML and DOCX exports work without it
	var pdf export.PDFBackend
	if cfg.Gotenberg.URL != "" {
		backend, err := export.NewGotenbergBackend(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout)
		if err != nil {
			logrus.Warnf("Failed to initialize PDF backend, PDF export disabled: %v", err)
		} else {
			pdf = backend
			logrus.WithFields(logrus.Fields{
				"url":     cfg.Gotenberg.URL,
				"timeout": cfg.Gotenberg.Timeout,
			}).Info("PDF backend initialized")
		}
	}

	pipeline := export.NewPipeline(pdf, export.Options{
		DefaultPageSize:    models.PageSize(cfg.Engine.DefaultPageSize),
		DefaultOrientation: models.PageOrientation(cfg.Engine.DefaultOrientation),
		Markdown:           cfg.Engine.MarkdownTextareas,
		VerifyURL:          strings.TrimRight(cfg.Server.BaseURL, "/") + "/api/v1/compliance-forms",
	})

	// Services
	templateService := services.NewTemplateService(st, cfg.Engine.MaxSectionDepth)
	documentService := services.NewDocumentService(st, templateService, services.DocumentOptions{
		SubmissionMode: cfg.Engine.SubmissionMode,
	})
	exportService := services.NewExportService(documentService, pipeline, artifactCache, storageClient, services.DefaultDownloadExpiry)
	complianceService := services.NewComplianceService(st, exportService, nil)

	if cfg.Engine.LoadSystemCatalog {
		n, err := templateService.LoadSystemTemplates(ctx)
		if err != nil {
			logrus.Fatalf("Failed to load system templates: %v", err)
		}
		logrus.WithField("count", n).Info("System templates loaded")
	}

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) == 0 || (len(cfg.Server.CORSOrigins) == 1 && cfg.Server.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	}
	corsConfig.AddAllowHeaders("Authorization", "X-User-ID")
	corsConfig.AddExposeHeaders("Content-Disposition", "X-Export-Note")
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"storage":   cfg.Storage.Type,
			"database":  cfg.Database.Type,
			"pdf":       pdf != nil,
		})
	})

	if localStorageClient != nil {
		r.GET("/files/*filepath", handlers.NewFileHandler(localStorageClient).ServeFile)
	}

	v1 := r.Group("/api/v1")
	handlers.NewTemplateHandler(templateService).Register(v1)
	handlers.NewDocumentHandler(documentService).Register(v1)
	handlers.NewExportHandler(exportService).Register(v1)
	handlers.NewComplianceHandler(complianceService).Register(v1)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 150 * time.Second, // PDF conversion can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	if valkeyClient != nil {
		if err := valkeyClient.Close(); err != nil {
			logrus.Errorf("Error closing Valkey client: %v", err)
		}
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			logrus.Errorf("Error closing database: %v", err)
		}
	}

	logrus.Info("Server exited")
}
