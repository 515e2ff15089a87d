package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/controller"
	"github.com/DyDxdYdX/portfolio-stats/logger"
	"github.com/DyDxdYdX/portfolio-stats/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v66/github"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// unauthenticated github core limit, used when the real limits can't be loaded
const defaultGithubRateLimit = 60

func main() {
	generateBadges := flag.Bool("generate-badges", false, "Generate the stats badges and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Warning("unable to load configuration, using defaults")
		cfg = config.GetDefault()
		cfg.ApplyEnvironment()
	}

	component := "server"
	if *generateBadges {
		component = "badges"
	}
	entry := logger.Setup(*cfg, component)

	// setup github client
	// the token is optional, it only raises the rate limits
	githubClient := newGithubClient(cfg.Github.Token)
	rateLimiter := newRateLimiter(githubClient)

	githubService := service.NewGithubService(*cfg, githubClient, rateLimiter)
	statsService := service.NewStatsService(*cfg, githubService)
	badgeService := service.NewBadgeService(*cfg, statsService)

	if *generateBadges {
		runBadgeGenerator(entry, *cfg, badgeService)
		return
	}

	contactService := service.NewContactService(*cfg, nil)
	apiController := controller.NewAPIController(*cfg, statsService, badgeService, contactService)

	// setup server and define all routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &http.Server{
		Addr:    ":" + cfg.API.ListenPort,
		Handler: router,
	}

	router.Use(
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Content-Type, Content-Length, Accept-Encoding, Host, accept, Origin, Cache-Control, X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}),
	)

	api := router.Group("")
	{
		api.GET("/stats/languages", apiController.GetLanguages)
		api.GET("/stats/badge.svg", apiController.GetBadge)
		api.POST("/contact", apiController.SubmitContact)
	}

	// generated badges are served as they were written by the build step
	router.Static("/github-stats", cfg.Badges.OutputDir)

	// start with configuration
	go func() {
		entry.Info("server listening on port " + cfg.API.ListenPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("error while starting server")
		}

	}()

	// wait for interrupt signal to gracefully shut down the server with a timeout of 15 seconds.
	// kill default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("SIGINT, SIGTERM received, will shut down server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	} else {
		log.Info("Application stopped gracefully !")
	}
}

// runBadgeGenerator is the build step: it always writes what it can and only
// exits with an error when no badge at all could be written
func runBadgeGenerator(entry *log.Entry, cfg config.Config, badgeService service.BadgeService) {
	entry.Info("generating github stats badges")

	written, err := badgeService.GenerateBadges(context.Background())
	if err != nil {
		entry.WithError(err).Warning("some badges could not be generated")
	}

	if len(written) == 0 {
		entry.Error("no badge generated")
		os.Exit(1)
	}

	entry.WithField("outputDir", cfg.Badges.OutputDir).Infof("%d badges generated", len(written))
}

func newGithubClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}

	log.Debug("will setup github client with authorization token")
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)

	return github.NewClient(oauth2.NewClient(context.Background(), ts))
}

// newRateLimiter mirrors the current github rate limits in a local limiter
// consume X tokens according to the number of remaining requests
// this help us to have a right rate limiter even if external requests are made
func newRateLimiter(githubClient *github.Client) *rate.Limiter {
	log.Debug("loading current rate limit from github")

	rateLimits, _, err := githubClient.RateLimit.Get(context.Background())
	if err != nil || rateLimits == nil || rateLimits.Core == nil || rateLimits.Core.Limit <= 0 {
		log.WithError(err).Warning("unable to load current github rate limits, assuming unauthenticated limits")
		return rate.NewLimiter(rate.Every(time.Hour/defaultGithubRateLimit), defaultGithubRateLimit)
	}

	log.WithFields(log.Fields{
		"totalAvailable":    rateLimits.Core.Limit,
		"remainingRequests": rateLimits.Core.Remaining,
	}).Debug("will setup local rate limiter with rate limits infos from github")

	limit := rateLimits.Core.Limit
	rateLimiter := rate.NewLimiter(rate.Every(time.Hour/time.Duration(limit)), limit)

	if !rateLimiter.AllowN(time.Now(), limit-rateLimits.Core.Remaining) {
		log.Warning("unable to mirror the github remaining requests in the local rate limiter")
	}

	return rateLimiter
}
