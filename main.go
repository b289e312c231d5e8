package main

import (
	"badges.dev/visits/controllers"
	"badges.dev/visits/middleware"
	"badges.dev/visits/models"
	"badges.dev/visits/services"
	"badges.dev/visits/utils"
	"fmt"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"log"
	"os"
	"strconv"
	"time"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: os.Getenv("SENTRY_DSN")}); err != nil {
		log.Printf("sentry initialisation failed: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	//database migrations
	models.ConnectDatabase()

	installationId, err := strconv.ParseInt(os.Getenv("GITHUB_APP_DEFAULT_INSTALLATION_ID"), 10, 64)
	if err != nil {
		log.Fatalf("invalid GITHUB_APP_DEFAULT_INSTALLATION_ID: %v", err)
	}

	auth, err := services.NewGithubAppAuth(os.Getenv("GITHUB_APP_ID"), os.Getenv("GITHUB_APP_PRIVATE_KEY"), services.NewTokenCache())
	if err != nil {
		log.Fatalf("failed to initialise github app auth: %v", err)
	}

	visits := &controllers.VisitsController{
		Checker:  &services.GithubRepoChecker{Tokens: auth, InstallationId: installationId},
		Store:    models.DB,
		Badges:   &utils.ShieldsClient{},
		Reporter: controllers.SentryReporter{},
	}

	r := gin.Default()
	r.Use(middleware.SentryRecovery())

	r.GET("/visits/:owner/:repo", visits.GetVisitsBadge)
	r.GET("/", controllers.MainPage)
	r.NoRoute(controllers.MainPage)

	r.Run(fmt.Sprintf(":%d", envInt("PORT", 8080)))
}
