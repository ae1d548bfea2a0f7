package router

import (
	"net/http"

	"github.com/GANESH4511/Dataverse/internal/auth"
	"github.com/GANESH4511/Dataverse/internal/handler"
	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/GANESH4511/Dataverse/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Dependencies are the services the routes are built from.
type Dependencies struct {
	Auth         *logic.AuthLogic
	Tasks        *logic.TaskLogic
	Submissions  *logic.SubmissionLogic
	Uploads      *logic.UploadLogic
	Payments     *logic.PaymentLogic
	Profiles     *logic.ProfileLogic
	Settlement   *logic.SettlementLogic
	UserTokens   *auth.TokenIssuer
	WorkerTokens *auth.TokenIssuer
	Health       handler.HealthReporter
	Metrics      *metrics.Metrics
	Decimals     int32
	// RateLimitPerMinute applies per client IP to nonce and sign-in; 0 disables it.
	RateLimitPerMinute int
}

func Setup(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(handler.RequestLogger())
	r.Use(gin.CustomRecovery(handler.Recover))

	system := handler.NewSystemHandler(deps.Health)
	r.GET("/", system.Index)
	r.GET("/health", system.Health)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.NoRoute(handler.NotFound)

	signInLimit := handler.NewRateLimiter(deps.RateLimitPerMinute).Middleware()

	userHandler := handler.NewUserHandler(deps.Auth, deps.Tasks, deps.Uploads, deps.Payments, deps.Profiles, deps.Decimals)
	users := r.Group("/api/user")
	{
		users.GET("/", userHandler.Index)
		users.POST("/wallet-nonce", signInLimit, userHandler.WalletNonce)
		users.POST("/wallet-signin", signInLimit, userHandler.WalletSignIn)

		authed := users.Group("", handler.RequireUser(deps.UserTokens))
		authed.POST("/upload-presigned-url", userHandler.UploadPresignedURL)
		authed.POST("/task-from-s3", userHandler.CreateTask)
		authed.GET("/task", userHandler.ListTasks)
		authed.POST("/payments", userHandler.RecordPayment)
		authed.GET("/profile", userHandler.Profile)
	}

	workerHandler := handler.NewWorkerHandler(deps.Auth, deps.Tasks, deps.Submissions, deps.Uploads, deps.Settlement, deps.Profiles, deps.Decimals)
	workers := r.Group("/api/worker")
	{
		workers.GET("/", workerHandler.Index)
		workers.POST("/wallet-nonce", signInLimit, workerHandler.WalletNonce)
		workers.POST("/wallet-signin", signInLimit, workerHandler.WalletSignIn)

		authed := workers.Group("", handler.RequireWorker(deps.WorkerTokens))
		authed.GET("/alltask", workerHandler.AllTasks)
		authed.GET("/tasks", workerHandler.Tasks)
		authed.POST("/submission-presigned-url", workerHandler.SubmissionPresignedURL)
		authed.POST("/submission-from-s3", workerHandler.CreateSubmission)
		authed.GET("/submissions", workerHandler.Submissions)
		authed.GET("/balance", workerHandler.Balance)
		authed.POST("/payout", workerHandler.Payout)
		authed.GET("/payouts", workerHandler.Payouts)
		authed.POST("/payouts/:id/retry", workerHandler.RetryPayout)
		authed.GET("/profile", workerHandler.Profile)
	}

	return r
}

// WithCORS allows the configured front-end origins.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(h)
}
