package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetsy/config"
	"meetsy/database"
	recordsRepo "meetsy/database/repository/records"
	"meetsy/gateway"
	"meetsy/handlers"
	"meetsy/middleware"
	"meetsy/routes"
	"meetsy/services/availability"
	"meetsy/services/dialogue"
	"meetsy/services/directory"
	"meetsy/services/engine"
	"meetsy/services/extractor"
	"meetsy/services/timeparse"
	"meetsy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	loc, err := time.LoadLocation(config.AppConfig.Timezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid TIMEZONE %q: %v", config.AppConfig.Timezone, err)
	}

	// Optional infrastructure: Mongo for booking history, Redis for
	// session state. Either can be absent in demo mode.
	var records recordsRepo.Repository
	if config.AppConfig.DatabaseURL != "" {
		database.InitDB()
		records = recordsRepo.NewMongoRecordRepo(database.MongoClient)
	}

	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	var store dialogue.Store
	if config.AppConfig.RedisAddr != "" {
		utils.InitSessionCache()
		store = dialogue.NewRedisStore(utils.GetSessionCacheClient(), sessionTTL)
	} else {
		store = dialogue.NewMemoryStore(sessionTTL)
	}

	utils.StartHealthMonitor(utils.SessionCacheClient, database.MongoClient)

	// Calendar gateway: Google when credentials are configured, otherwise
	// the in-memory calendar.
	var gw gateway.CalendarGateway
	if config.AppConfig.GoogleCredentialsPath != "" {
		gw, err = gateway.NewGoogleGateway(context.Background(),
			config.AppConfig.GoogleCredentialsPath, config.AppConfig.GoogleCalendarID)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Google Calendar gateway: %v", err)
		}
		logger.Info("Using Google Calendar gateway",
			zap.String("calendarId", config.AppConfig.GoogleCalendarID))
	} else {
		gw = gateway.NewMemoryGateway()
		logger.Info("Using in-memory calendar gateway")
	}

	dir := directory.NewCachedResolver(directory.NewStaticResolver(config.AppConfig.Directory))
	times := timeparse.NewResolver(loc)

	ruleExtractor := extractor.NewRuleExtractor(times, dir)
	var slotExtractor extractor.Extractor = ruleExtractor
	if config.AppConfig.GeminiAPIKey != "" {
		gem, err := extractor.NewGeminiExtractor(config.AppConfig.GeminiAPIKey, ruleExtractor, dir, loc)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini extractor: %v", err)
		}
		slotExtractor = gem
		logger.Info("Using Gemini extractor with rule-based fallback")
	}

	checker := availability.NewResolver(gw, availability.Config{
		Step:            time.Duration(config.AppConfig.ScanStepMinutes) * time.Minute,
		Horizon:         time.Duration(config.AppConfig.ScanHorizonDays) * 24 * time.Hour,
		Lookaround:      time.Duration(config.AppConfig.LookaroundDays) * 24 * time.Hour,
		MaxAlternatives: config.AppConfig.MaxAlternatives,
		GatewayTimeout:  time.Duration(config.AppConfig.GatewayTimeoutSeconds) * time.Second,
	})

	manager := dialogue.NewManager(dialogue.Config{
		RequireAttendee:     config.AppConfig.RequireAttendee,
		ConfidenceThreshold: config.AppConfig.ConfidenceThreshold,
		RequesterID:         config.AppConfig.RequesterID,
	})

	eng := &engine.Engine{
		Store:          store,
		Manager:        manager,
		Extractor:      slotExtractor,
		Availability:   checker,
		Gateway:        gw,
		Records:        records,
		IdleTimeout:    time.Duration(config.AppConfig.SessionIdleMinutes) * time.Minute,
		GatewayTimeout: time.Duration(config.AppConfig.GatewayTimeoutSeconds) * time.Second,
		RetryBackoff:   time.Duration(config.AppConfig.RetryBackoffSeconds) * time.Second,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := &routes.HandlerBundle{
		Chat:    handlers.NewChatHandler(eng, logger),
		History: handlers.NewHistoryHandler(records),
	}
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("Starting server on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
	logger.Info("Server exited")
}
