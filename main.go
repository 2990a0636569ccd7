package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/kardianos/osext"
	_ "github.com/mattn/go-sqlite3" // Just needed for the sqlite driver
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	rota "github.com/haldre/rota/internal"
	"github.com/haldre/rota/internal/cache"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/migrate"
	"github.com/haldre/rota/internal/ratelimit"
	blockoutrepo "github.com/haldre/rota/internal/repos/blockout/sqlite"
	eventrepo "github.com/haldre/rota/internal/repos/event/sqlite"
	sessionrepo "github.com/haldre/rota/internal/repos/session/inmem"
	songrepo "github.com/haldre/rota/internal/repos/song/sqlite"
	userrepo "github.com/haldre/rota/internal/repos/user/sqlite"
)

const (
	appName    = "Rota"
	appVersion = "0.1.0"
	dbFile     = "rota.db"

	shutdownTimeout = 10 * time.Second
)

// Checks and tries to create the given directory recursively (or panics if this fails)
func checkAndCreateDir(path string, logger *logrus.Entry) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if e, ok := err.(*os.PathError); ok && e.Err == syscall.ENOENT {
			logger.WithField(log.FldPath, path).Info("Directory does not exist - trying to create...")
			if err = os.MkdirAll(path, os.ModePerm); err != nil {
				logger.WithError(err).Fatal("Failed to create directory")
			}
			logger.Info("Directory created successfully")
		} else {
			logger.WithError(err).Fatal("Stat has failed")
		}
	} else {
		if !fileInfo.IsDir() {
			logger.Fatalf("'%s' is not a directory. Remove the plain file if you want to continue", path)
		}
	}
}

// connectRedis tries to reach the configured Redis server with a few retries.
// The cache is optional, so a nil client is returned when the server stays
// unreachable.
func connectRedis(ctx context.Context, addr string, logger *logrus.Entry) *redis.Client {
	if addr == "" {
		logger.Info("No Redis server configured - running without cache")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	backoff := retry.WithMaxRetries(4, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Redis is not reachable - running without cache")
		client.Close()
		return nil
	}
	logger.Infof("Connected to Redis at %s", addr)
	return client
}

func main() {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}

	configFile := flag.String(
		"config",
		filepath.Join(execDir, "config.json"),
		"The configuration file to load the application's configuration from",
	)
	flag.Parse()

	ctx := context.Background()

	// Initialize the logger
	logger := logrus.WithField(log.FldVersion, appVersion)
	logger.Infof("%s version %s is starting up...", appName, appVersion)
	ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger)

	// Load the main configuration file
	cs := rota.NewConfigService(*configFile)
	if err := cs.Load(ctx); err != nil {
		logger.WithError(err).Error("Cannot load config. Using defaults")
	}
	conf := cs.GetConfig(ctx)

	if lvl, err := logrus.ParseLevel(conf.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	logger.Infof("Using '%s' as data directory", conf.DataDir)
	checkAndCreateDir(conf.DataDir, logger)

	// Set up the database connection and perform pending migrations
	dbFileName := path.Join(conf.DataDir, dbFile)
	var db *sqlx.DB
	if db, err = sqlx.Open("sqlite3", dbFileName); err != nil {
		logger.WithError(err).Fatal("Failed to open database connection")
	}
	logger.Info("Performing database migrations...")
	if err = migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
		logger.WithError(err).Fatal("Database migration has failed. Please check database for consistency and try again.")
	}

	// The cache is optional - a failed connection only disables it
	redisClient := connectRedis(ctx, conf.Redis.Addr, logger)
	appCache := cache.New(redisClient, time.Duration(conf.Redis.CacheTTLSeconds)*time.Second, logger)

	eventRepo := eventrepo.New(db, logger)
	songRepo := songrepo.New(db, logger)
	blockoutRepo := blockoutrepo.New(db, logger)
	userRepo := userrepo.New(db, logger)
	sessionRepo := sessionrepo.New()

	evSrv := rota.NewEventService(eventRepo, blockoutRepo, userRepo, appCache, logger)
	songSrv := rota.NewSongService(songRepo, appCache, logger)
	blockSrv := rota.NewBlockoutService(blockoutRepo, appCache, logger)
	userSrv := rota.NewUserService(userRepo, logger)
	sessServ := rota.NewSessionService(sessionRepo, userRepo, logger)
	healthSrv := rota.NewHealthService(db, appCache, logger)

	// Make sure there is at least one account to log in with
	if conf.DefaultAdmin != nil {
		if err = userSrv.EnsureDefaultAdmin(conf.DefaultAdmin.Email, conf.DefaultAdmin.Password); err != nil {
			logger.WithError(err).Fatal("Failed to create default admin account")
		}
	}

	limiter := ratelimit.New()
	limiterStop := make(chan struct{})
	go limiter.CleanupLoop(time.Minute, limiterStop)

	httpLogger := logger.WithField(log.FldTransport, "HTTP")

	h := rota.MakeHTTPHandler(
		evSrv,
		songSrv,
		blockSrv,
		userSrv,
		sessServ,
		healthSrv,
		cs,
		limiter,
		httpLogger,
	)

	srv := &http.Server{
		Addr:    conf.ListenAddress,
		Handler: h,
	}

	errs := make(chan error)

	// Listen for stop signals that will end the service
	go func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		logger.Info("Caught signal to stop. Shutting down.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown failed")
		}
		errs <- fmt.Errorf("%s", sig)
	}()

	go func() {
		httpLogger.WithField("addr", conf.ListenAddress).Info("Starting listening port")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	// Watchdog for systemd
	go func() {
		interval, err := daemon.SdWatchdogEnabled(false)
		if err != nil || interval == 0 {
			return
		}
		logger.Info("Activating systemd watchdog goroutine")
		port := strings.Split(conf.ListenAddress, ":")[1]
		url := fmt.Sprintf("http://127.0.0.1:%s/api/health/readiness", port)
		for {
			if _, err := http.Get(url); err == nil {
				daemon.SdNotify(false, "WATCHDOG=1")
			}
			time.Sleep(interval / 3)
		}
	}()

	// Notify systemd that we are ready to go (if available)
	daemon.SdNotify(false, "READY=1")

	err = <-errs

	// Tear down the remaining background workers
	close(limiterStop)
	sessionRepo.Close()
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	logger.WithError(err).Error("Shutdown complete")
}
