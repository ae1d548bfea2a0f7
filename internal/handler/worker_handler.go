package handler

import (
	"net/http"

	"github.com/GANESH4511/Dataverse/internal/auth"
	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/GANESH4511/Dataverse/internal/storage"
	"github.com/gin-gonic/gin"
)

type CreateSubmissionRequest struct {
	TaskID  string `json:"taskId"`
	FileURL string `json:"fileUrl"`
}

// WorkerHandler serves /api/worker.
type WorkerHandler struct {
	authLogic       *logic.AuthLogic
	taskLogic       *logic.TaskLogic
	submissionLogic *logic.SubmissionLogic
	uploadLogic     *logic.UploadLogic
	settlementLogic *logic.SettlementLogic
	profileLogic    *logic.ProfileLogic
	decimals        int32
}

func NewWorkerHandler(authLogic *logic.AuthLogic, taskLogic *logic.TaskLogic, submissionLogic *logic.SubmissionLogic,
	uploadLogic *logic.UploadLogic, settlementLogic *logic.SettlementLogic, profileLogic *logic.ProfileLogic, decimals int32) *WorkerHandler {
	return &WorkerHandler{
		authLogic:       authLogic,
		taskLogic:       taskLogic,
		submissionLogic: submissionLogic,
		uploadLogic:     uploadLogic,
		settlementLogic: settlementLogic,
		profileLogic:    profileLogic,
		decimals:        decimals,
	}
}

// Index lists the worker endpoints.
func (h *WorkerHandler) Index(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "Worker API endpoints", gin.H{
		"endpoints": gin.H{
			"POST /api/worker/wallet-nonce":             "Get nonce for wallet signing",
			"POST /api/worker/wallet-signin":            "Sign in worker with wallet signature",
			"GET /api/worker/alltask":                   "Get all tasks (requires auth)",
			"GET /api/worker/tasks":                     "Get all available tasks (requires auth)",
			"POST /api/worker/submission-presigned-url": "Get pre-signed URL for submission upload (requires auth)",
			"POST /api/worker/submission-from-s3":       "Create submission from S3 file with CloudFront URL (requires auth)",
			"GET /api/worker/submissions":               "Get own submissions (requires auth)",
			"GET /api/worker/balance":                   "Get balance (requires auth)",
			"POST /api/worker/payout":                   "Process payout (requires auth)",
			"GET /api/worker/payouts":                   "Get payout attempts (requires auth)",
			"POST /api/worker/payouts/:id/retry":        "Retry a failed payout (requires auth)",
			"GET /api/worker/profile":                   "Get worker profile (requires auth)",
		},
	})
}

func (h *WorkerHandler) WalletNonce(c *gin.Context) {
	walletNonce(c, h.authLogic, auth.NamespaceWorker)
}

func (h *WorkerHandler) WalletSignIn(c *gin.Context) {
	var body SignInBody
	if !bindJSON(c, &body) {
		return
	}
	res, err := h.authLogic.SignIn(auth.NamespaceWorker, body.Variant())
	if err != nil {
		respondError(c, err, "Internal server error")
		return
	}

	account := AccountResponse{ID: res.AccountID, WalletAddress: res.WalletAddress}
	message := "Login successful"
	if res.Legacy {
		message = "Wallet sign in successful"
		if res.Balance != nil {
			pending := chain.DisplayFloat(res.Balance.Pending, h.decimals)
			locked := chain.DisplayFloat(res.Balance.Locked, h.decimals)
			account.PendingBalance = &pending
			account.LockedBalance = &locked
		}
	}
	SuccessResponse(c, http.StatusOK, message, gin.H{"token": res.Token, "worker": account})
}

// AllTasks lists every task with the caller's hasSubmitted flag.
func (h *WorkerHandler) AllTasks(c *gin.Context) {
	h.listTasks(c, true)
}

// Tasks lists every task without the per-worker flag.
func (h *WorkerHandler) Tasks(c *gin.Context) {
	h.listTasks(c, false)
}

func (h *WorkerHandler) listTasks(c *gin.Context, withFlag bool) {
	workerID := ""
	if withFlag {
		workerID = c.GetString(workerIDKey)
	}
	summaries, err := h.taskLogic.ListAllTasks(workerID)
	if err != nil {
		respondError(c, err, "Failed to fetch tasks")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"tasks": ToTaskSummaryResponseList(summaries, h.decimals, withFlag)})
}

func (h *WorkerHandler) SubmissionPresignedURL(c *gin.Context) {
	presign(c, h.uploadLogic, storage.FolderSubmissions)
}

func (h *WorkerHandler) CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.submissionLogic.CreateSubmission(c.GetString(workerIDKey), req.TaskID, req.FileURL)
	if err != nil {
		respondError(c, err, "Failed to create submission")
		return
	}
	SuccessResponse(c, http.StatusOK, "Submission created successfully with CloudFront URL", gin.H{
		"submission":        ToSubmissionResponse(res.Submission),
		"rewardEarned":      chain.DisplayFloat(res.Reward, h.decimals),
		"newPendingBalance": chain.DisplayFloat(res.NewPending, h.decimals),
	})
}

func (h *WorkerHandler) Submissions(c *gin.Context) {
	subs, err := h.submissionLogic.ListSubmissionsForWorker(c.GetString(workerIDKey))
	if err != nil {
		respondError(c, err, "Failed to fetch submissions")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"submissions": ToWorkerSubmissionResponseList(subs, h.settlementLogic.Reward, h.decimals),
	})
}

func (h *WorkerHandler) Balance(c *gin.Context) {
	balance, err := h.settlementLogic.GetBalance(c.GetString(workerIDKey))
	if err != nil {
		respondError(c, err, "Failed to fetch balance")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"balance": ToBalanceResponse(*balance, h.decimals)})
}

func (h *WorkerHandler) Payout(c *gin.Context) {
	res, err := h.settlementLogic.Payout(c.Request.Context(), c.GetString(workerIDKey))
	if err != nil {
		respondError(c, err, "Failed to process payout")
		return
	}
	h.writePayout(c, res)
}

func (h *WorkerHandler) RetryPayout(c *gin.Context) {
	res, err := h.settlementLogic.RetryPayout(c.Request.Context(), c.GetString(workerIDKey), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to process payout")
		return
	}
	h.writePayout(c, res)
}

// writePayout reports a payout attempt. A failure that left the balance in
// pending is an error response; an unconfirmed transfer is 202.
func (h *WorkerHandler) writePayout(c *gin.Context, res *logic.PayoutResult) {
	fields := gin.H{
		"balance":         ToBalanceResponse(res.Balance, h.decimals),
		"payoutAmount":    chain.DisplayFloat(res.PayoutAmount, h.decimals),
		"transactionNote": res.Note,
		"payout":          ToPayoutResponse(res.Payout, h.decimals),
	}

	switch {
	case res.Payout.Status == model.PayoutStatusFailed && !res.Settled:
		fields["success"] = false
		fields["message"] = "Payout transfer failed"
		c.JSON(http.StatusBadGateway, fields)
	case res.Payout.Status == model.PayoutStatusTransferSent:
		SuccessResponse(c, http.StatusAccepted, "Payout submitted", fields)
	default:
		SuccessResponse(c, http.StatusOK, "Payout processed successfully", fields)
	}
}

func (h *WorkerHandler) Payouts(c *gin.Context) {
	payouts, err := h.settlementLogic.ListPayouts(c.GetString(workerIDKey))
	if err != nil {
		respondError(c, err, "Failed to fetch payouts")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"payouts": ToPayoutResponseList(payouts, h.decimals)})
}

func (h *WorkerHandler) Profile(c *gin.Context) {
	profile, err := h.profileLogic.WorkerProfile(c.GetString(workerIDKey))
	if err != nil {
		respondError(c, err, "Failed to fetch profile")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"worker": ToWorkerProfileResponse(profile, h.decimals)})
}
