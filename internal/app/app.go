package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "eb5tracker/docs"
	"eb5tracker/internal/authz"
	"eb5tracker/internal/config"
	"eb5tracker/internal/handlers"
	"eb5tracker/internal/middleware"
	"eb5tracker/internal/models"
	"eb5tracker/internal/pdf"
	"eb5tracker/internal/repositories"
	"eb5tracker/internal/routes"
	"eb5tracker/internal/services"
)

// Stores are the two backends the services run on.
type Stores struct {
	KV    repositories.KVStore
	Local repositories.LocalStore
	db    *sql.DB
}

func (s *Stores) Close() {
	if s.Local != nil {
		if err := s.Local.Close(); err != nil {
			log.Printf("[app] close local store: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("[app] close db: %v", err)
		}
	}
}

// OpenDB connects to Postgres and makes sure the key-value table exists.
func OpenDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := repositories.Migrate(ctx, db, cfg.Database.KVTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenStores uses Postgres when a database URL is configured and an
// in-process map otherwise.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	st := &Stores{}
	if cfg.Database.DSN == "" {
		log.Printf("[app] no database url, remote store kept in memory")
		st.KV = repositories.NewMemoryKV()
	} else {
		db, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st.db = db
		st.KV = repositories.NewKVRepository(db, cfg.Database.KVTable)
	}

	local, err := repositories.OpenLocalStore(cfg.Local.Dir, cfg.Local.InMemory)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.Local = local
	return st, nil
}

// NewRouter wires repositories, services and handlers onto a gin engine.
func NewRouter(cfg *config.Config, st *Stores) *gin.Engine {
	// === Repos ===
	userRepo := repositories.NewUserRepository(st.KV)
	investorRepo := repositories.NewInvestorRepository(st.KV)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	authService := services.NewAuthService(userRepo, services.AuthOptions{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		TokenTTL:  cfg.Auth.TokenTTL,
		Policy: authz.SignupPolicy{
			AllowedDomains: cfg.Auth.AllowedDomains,
			AdminEmails:    cfg.Auth.AdminEmails,
		},
		Welcome: emailService,
	})

	var notifier services.StageNotifier
	tg, err := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
	if err != nil {
		log.Printf("[app] telegram disabled: %v", err)
	} else if tg != nil {
		notifier = tg
	}

	gateway := services.NewGateway(investorRepo, userRepo, st.Local)
	templateService := services.NewTemplateService(st.Local)
	investorService := services.NewInvestorService(gateway, templateService, services.InvestorOptions{
		Notifier:      notifier,
		AnonymousRole: models.Role(cfg.Local.AnonymousRole),
	})
	pdfGen := pdf.NewDocumentGenerator(cfg.Reports.FontPath)
	timelineService := services.NewTimelineService(investorService, pdfGen)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authService, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Investors: handlers.NewInvestorHandler(investorService),
		Templates: handlers.NewTemplateHandler(templateService),
		Users:     handlers.NewUserHandler(gateway),
		Reports:   handlers.NewReportHandler(timelineService),
	})
	return router
}

func Run(cfg *config.Config) error {
	st, err := OpenStores(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	router := NewRouter(cfg, st)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[app] server listening on %s", listenAddr)
	return router.Run(listenAddr)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
