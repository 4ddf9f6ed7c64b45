package main

import (
	"context"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	twilio "github.com/twilio/twilio-go"

	"github.com/poofware/leasing-service/internal/app"
	"github.com/poofware/leasing-service/internal/config"
	"github.com/poofware/leasing-service/internal/constants"
	"github.com/poofware/leasing-service/internal/controllers"
	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/middleware"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/routes"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize leasing-service:", err)
	}
	defer application.Close()

	store := application.Store

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), store); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		} else {
			utils.Logger.Info("Seeded test data successfully")
		}
	}

	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)

	notificationService := services.NewNotificationService(cfg, store.Users(), store.Notifications(), twClient, sgClient)

	bus := eventbus.New(constants.NotificationBufferSize)
	bus.Subscribe("notifications", notificationService)
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	bus.Start(busCtx)
	defer bus.Stop()

	agreementService := services.NewAgreementService(store, bus)
	paymentService := services.NewPaymentService(store, services.NewSimulatedGateway(), bus)
	refundService := services.NewRefundService(store, bus)
	terminationService := services.NewTerminationService(store, bus)
	rentCycleService := services.NewRentCycleService(store, bus)
	scheduler := services.NewLeaseSchedulerService(terminationService, rentCycleService, agreementService)

	healthController := controllers.NewHealthController(application.DB)
	agreementsController := controllers.NewAgreementsController(agreementService)
	paymentsController := controllers.NewPaymentsController(paymentService, refundService)
	terminationsController := controllers.NewTerminationsController(terminationService)
	notificationsController := controllers.NewNotificationsController(notificationService)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey, cfg.JWTIssuer))

	// Agreements
	secured.HandleFunc(routes.Agreements, agreementsController.CreateAgreementHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Agreement, agreementsController.GetAgreementHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.AgreementTenant, agreementsController.AssignTenantHandler).Methods(http.MethodPut, http.MethodPost)
	secured.HandleFunc(routes.AgreementReady, agreementsController.MarkReadyHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AgreementAccept, agreementsController.AcceptAgreementHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AgreementCancel, agreementsController.CancelAgreementHandler).Methods(http.MethodPost)

	// Payments and refunds
	secured.HandleFunc(routes.AgreementInitialPayment, paymentsController.InitialPaymentHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AgreementPayments, paymentsController.PaymentHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AgreementDepositRefund, paymentsController.RefundDepositHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AgreementAdvanceRefund, paymentsController.RefundAdvanceHandler).Methods(http.MethodPost)

	// Terminations
	secured.HandleFunc(routes.AgreementTerminations, terminationsController.InitiateTerminationHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AgreementTerminationAccept, terminationsController.AcceptMutualTerminationHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.TerminationsConfirm, terminationsController.ConfirmEvictionHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.TerminationsCancel, terminationsController.CancelTerminationHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BreachResolve, terminationsController.ResolveBreachHandler).Methods(http.MethodPost)

	secured.HandleFunc(routes.Notifications, notificationsController.ListNotificationsHandler).Methods(http.MethodGet)

	admin := router.NewRoute().Subrouter()
	admin.Use(middleware.AuthMiddleware(cfg.RSAPublicKey, cfg.JWTIssuer), middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc(routes.AdminBreachReview, terminationsController.ReviewBreachHandler).Methods(http.MethodPost)

	c := cron.New(cron.WithLocation(time.UTC))
	if err := scheduler.Register(c, cfg.GraceSweepSchedule, cfg.LDFlag_GraceSweepEnabled); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule lease maintenance cron")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, constants.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("leasing-service failed to start:", err)
	}
}
