package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/campusvote/ballot-service/internal/app"
	"github.com/campusvote/ballot-service/internal/config"
	"github.com/campusvote/ballot-service/internal/controllers"
	"github.com/campusvote/ballot-service/internal/middleware"
	"github.com/campusvote/ballot-service/internal/repositories"
	"github.com/campusvote/ballot-service/internal/services"
	"github.com/campusvote/ballot-service/internal/utils"
)

func main() {
	utils.InitLogger(config.DefaultAppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	voterTokenRepo := repositories.NewVoterTokenRepository(application.DB)
	voteRepo := repositories.NewVoteRepository(application.DB)
	electionRepo := repositories.NewElectionRepository(application.DB)
	ballotRepo := repositories.NewBallotRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	notifier := services.NewNotifier(cfg)
	otpService := services.NewOTPService(voterTokenRepo, notifier, cfg)
	accessService := services.NewAccessService(voterTokenRepo, electionRepo, ballotRepo, cfg)
	verificationService := services.NewVerificationService(
		voterTokenRepo, electionRepo, otpService, accessService, cfg,
	)
	votingService := services.NewVotingService(voterTokenRepo, accessService, voteRepo)
	lifecycleService := services.NewLifecycleService(electionRepo, voterTokenRepo)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	verificationController := controllers.NewVerificationController(verificationService)
	accessController := controllers.NewAccessController(accessService)
	voteController := controllers.NewVoteController(votingService)
	lifecycleController := controllers.NewLifecycleController(lifecycleService)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	// /ballot/v1
	ballotRouter := router.PathPrefix("/ballot").Subrouter()
	v1Router := ballotRouter.PathPrefix("/v1").Subrouter()

	v1Router.HandleFunc("/verify/confirm", verificationController.ConfirmCredentials).Methods("POST")
	v1Router.HandleFunc("/verify/resend-otp", verificationController.ResendOTP).Methods("POST")
	v1Router.HandleFunc("/access/validate", accessController.ValidateAccess).Methods("POST")
	v1Router.HandleFunc("/vote/cast", voteController.CastVote).Methods("POST")

	// Operator-only lifecycle trigger
	internalRouter := v1Router.NewRoute().Subrouter()
	internalRouter.Use(middleware.InternalAuthMiddleware(cfg.InternalJWTSecret))
	internalRouter.HandleFunc("/lifecycle/run", lifecycleController.Run).Methods("GET")

	//----------------------------------------------------------------------
	// Lifecycle cron
	//----------------------------------------------------------------------
	c := cron.New()
	_, cronErr := c.AddFunc(cfg.LifecycleCronSpec, func() {
		activated, closed, err := lifecycleService.Run(context.Background())
		if err != nil {
			utils.Logger.WithError(err).Error("Lifecycle tick failed")
			return
		}
		if len(activated) > 0 || len(closed) > 0 {
			utils.Logger.Infof("Lifecycle tick: activated=%d closed=%d", len(activated), len(closed))
		}
	})
	if cronErr != nil {
		utils.Logger.WithError(cronErr).Fatal("Failed to schedule lifecycle cron")
	}
	c.Start()
	defer c.Stop()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Server failed:", err)
	}
}
