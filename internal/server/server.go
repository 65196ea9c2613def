package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/skillquest/internal/config"
	"anoa.com/skillquest/internal/middleware"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/internal/scheduler"
	"anoa.com/skillquest/pkg/ratelimit"
	"anoa.com/skillquest/pkg/storage"

	activityHttp "anoa.com/skillquest/internal/modules/activity/delivery/http"
	activityRepo "anoa.com/skillquest/internal/modules/activity/repository"
	activityService "anoa.com/skillquest/internal/modules/activity/service"

	contentHttp "anoa.com/skillquest/internal/modules/content/delivery/http"
	"anoa.com/skillquest/internal/modules/content/provider"
	contentService "anoa.com/skillquest/internal/modules/content/service"

	leaderboardHttp "anoa.com/skillquest/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/skillquest/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/skillquest/internal/modules/leaderboard/service"

	statHttp "anoa.com/skillquest/internal/modules/stat/delivery/http"
	statRepo "anoa.com/skillquest/internal/modules/stat/repository"
	statService "anoa.com/skillquest/internal/modules/stat/service"

	focusHttp "anoa.com/skillquest/internal/modules/focus/delivery/http"
	focusService "anoa.com/skillquest/internal/modules/focus/service"

	notiHttp "anoa.com/skillquest/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/skillquest/internal/modules/notification/repository"
	notifService "anoa.com/skillquest/internal/modules/notification/service"

	profileHttp "anoa.com/skillquest/internal/modules/profile/delivery/http"
	profileRepo "anoa.com/skillquest/internal/modules/profile/repository"
	profileService "anoa.com/skillquest/internal/modules/profile/service"

	progressionHttp "anoa.com/skillquest/internal/modules/progression/delivery/http"
	progressionRepo "anoa.com/skillquest/internal/modules/progression/repository"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"

	searchService "anoa.com/skillquest/internal/modules/search/service"

	userHttp "anoa.com/skillquest/internal/modules/user/delivery/http"
	userRepo "anoa.com/skillquest/internal/modules/user/repository"
	userService "anoa.com/skillquest/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	brokerBuffer = 64
	jobTimeout   = 30 * time.Minute
)

type Server struct {
	engine    *gin.Engine
	cfg       *config.Config
	db        *gorm.DB
	scheduler *scheduler.Scheduler
	llm       provider.LLMProvider
	log       *zap.Logger
}

// NewServer wires every module. redisClient may be nil, in which case push
// notifications stay in-process and rate limiting is off.
func NewServer(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	var broker realtime.Broker
	if redisClient != nil {
		broker = realtime.NewRedisBroker(redisClient, brokerBuffer)
	} else {
		log.Warn("REDIS_URL not set, using in-process realtime broker")
		broker = realtime.NewMemoryBroker(brokerBuffer)
	}
	limiter := ratelimit.New(redisClient)
	upgrader := realtime.NewUpgrader(splitOrigins(cfg.AllowedOrigins))

	var meiliClient meilisearch.ServiceManager
	if host := cfg.MeiliSearchHost; host != "" {
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}
	searchSvc := searchService.NewMeiliSearchService(meiliClient, log.Named("search"))

	var avatars storage.AvatarStorage
	if cfg.CloudinaryURL != "" {
		s, err := storage.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryUploadFolder)
		if err != nil {
			return nil, err
		}
		avatars = s
	}

	var llm provider.LLMProvider
	if cfg.GeminiAPIKey != "" {
		p, err := provider.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		llm = p
	}

	var credit progressionService.CreditClient
	if cfg.XPCreditURL != "" {
		credit = progressionService.NewHTTPCreditClient(cfg.XPCreditURL, cfg.XPCreditTimeout)
	}

	// Users and auth
	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, broker, log.Named("notification"))
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, upgrader, log)

	// Progression ledger
	levels := progressionService.NewLevels(cfg.LevelXPStep)
	ledger := progressionService.NewLedgerService(
		progressionRepo.NewProfileRepository(db),
		credit,
		notificationSvc,
		broker,
		progressionService.LedgerConfig{Levels: levels, MaxRetries: cfg.AwardMaxRetries},
		log.Named("ledger"),
	)
	progressionHandler := progressionHttp.NewProgressionHandler(ledger, upgrader, log)

	profileRepository := profileRepo.NewProfileRepository(db)
	profileSvc := profileService.NewProfileService(profileRepository, ledger, avatars, log.Named("profile"))
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	// Activity stream
	activityRepository := activityRepo.NewActivityRepository(db)
	activitySvc := activityService.NewActivityService(activityRepository, profileRepository, broker, searchSvc, cfg.FeedSize, log.Named("activity"))
	activityHandler := activityHttp.NewActivityHandler(activitySvc, upgrader, log)

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db), levels)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	statSvc := statService.NewStatService(statRepo.NewStatRepository(db))
	statHandler := statHttp.NewStatHandler(statSvc)

	focusSvc := focusService.NewFocusService(ledger, activitySvc, log.Named("focus"))
	focusHandler := focusHttp.NewFocusHandler(focusSvc, levels)

	contentSvc := contentService.NewContentService(llm, activitySvc, log.Named("content"))
	contentHandler := contentHttp.NewContentHandler(contentSvc)

	jobs := scheduler.New(jobTimeout, log.Named("scheduler"))
	for _, job := range []scheduler.Job{
		scheduler.NewReindexActivitiesJob(activityRepository, searchSvc, cfg.ReindexCron, log.Named("scheduler")),
		scheduler.NewCleanupNotificationsJob(notificationSvc, scheduler.NotificationRetention, cfg.CleanupCron, log.Named("scheduler")),
	} {
		if err := jobs.Register(job); err != nil {
			return nil, err
		}
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.Named("http")))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(userRepository, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Anonymous callers allowed; handlers decide what they may do
	optional := api.Group("")
	optional.Use(authMiddleware.OptionalAuth())
	{
		optional.GET("/stats", statHandler.GetCommunityStats)
		optional.GET("/activities", activityHandler.GetRecent)
		optional.GET("/activities/top-movers", activityHandler.GetTopMovers)
		optional.GET("/activities/search", activityHandler.Search)
		optional.GET("/activities/ws", activityHandler.HandleWebSocket)
		optional.POST("/activities", activityHandler.LogActivity)

		content := optional.Group("/content")
		content.Use(middleware.RateLimit(limiter, "content", cfg.RateLimitContent, log))
		for _, kind := range contentService.Kinds {
			content.POST("/"+string(kind), contentHandler.Generate(kind))
		}
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.PUT("/profiles/:id/progress", progressionHandler.SetProgress)

			jobsH := &jobsHandler{scheduler: jobs}
			adminGroup.GET("/jobs", jobsH.List)
			adminGroup.POST("/jobs/:name/run", jobsH.Run)
		}

		// Progression
		protected.GET("/progress/me", progressionHandler.GetMyProgress)
		protected.GET("/progress/ws", progressionHandler.HandleWebSocket)
		// One optional policy for every XP write; off by default so repeated awards all land.
		awardLimit := middleware.RateLimit(limiter, "award", cfg.RateLimitAward, log)
		protected.POST("/progress/award", awardLimit, progressionHandler.AwardXP)
		protected.POST("/xp/credit", awardLimit, progressionHandler.Credit)
		protected.POST("/sessions/complete", awardLimit, focusHandler.CompleteSession)
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		// Profile routes
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.GET("/profile/:username", profileHandler.GetProfileByUsername)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:    router,
		cfg:       cfg,
		db:        db,
		scheduler: jobs,
		llm:       llm,
		log:       log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests and jobs.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.shutdownBackground()
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.scheduler.Stop(shutdownCtx)
	if s.llm != nil {
		s.llm.Close()
	}
	return err
}

func (s *Server) shutdownBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.scheduler.Stop(ctx)
	if s.llm != nil {
		s.llm.Close()
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := splitOrigins(allowedOrigins)
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
