package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GANESH4511/Dataverse/internal/auth"
	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/GANESH4511/Dataverse/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type NonceRequest struct {
	PublicKey string `json:"publicKey"`
}

// SignInBody is the wire form of a sign-in. The legacy form carries only
// walletAddress.
type SignInBody struct {
	PublicKey     string               `json:"publicKey"`
	Signature     chain.SignatureBytes `json:"signature"`
	Message       string               `json:"message"`
	WalletAddress string               `json:"walletAddress"`
}

// Variant picks the sign-in method from the fields present.
func (b SignInBody) Variant() logic.SignInRequest {
	if b.PublicKey == "" && len(b.Signature) == 0 && b.Message == "" && b.WalletAddress != "" {
		return logic.AddressSignIn{WalletAddress: b.WalletAddress}
	}
	return logic.SignatureSignIn{PublicKey: strings.TrimSpace(b.PublicKey), Signature: b.Signature, Message: b.Message}
}

type PresignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// AmountText accepts a JSON number or a numeric string verbatim.
type AmountText string

func (a *AmountText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	if string(data) == "null" {
		*a = ""
		return nil
	}
	*a = AmountText(data)
	return nil
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      AmountText `json:"amount"`
	FileURL     string     `json:"fileUrl"`
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// UserHandler serves /api/user.
type UserHandler struct {
	authLogic    *logic.AuthLogic
	taskLogic    *logic.TaskLogic
	uploadLogic  *logic.UploadLogic
	paymentLogic *logic.PaymentLogic
	profileLogic *logic.ProfileLogic
	decimals     int32
}

func NewUserHandler(authLogic *logic.AuthLogic, taskLogic *logic.TaskLogic, uploadLogic *logic.UploadLogic,
	paymentLogic *logic.PaymentLogic, profileLogic *logic.ProfileLogic, decimals int32) *UserHandler {
	return &UserHandler{
		authLogic:    authLogic,
		taskLogic:    taskLogic,
		uploadLogic:  uploadLogic,
		paymentLogic: paymentLogic,
		profileLogic: profileLogic,
		decimals:     decimals,
	}
}

// Index lists the user endpoints.
func (h *UserHandler) Index(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "User API endpoints", gin.H{
		"endpoints": gin.H{
			"POST /api/user/wallet-nonce":         "Get nonce for wallet signing",
			"POST /api/user/wallet-signin":        "Sign in with wallet signature",
			"POST /api/user/upload-presigned-url": "Get pre-signed URL for S3 upload (requires auth)",
			"POST /api/user/task-from-s3":         "Create task from S3 file with CloudFront URL (requires auth)",
			"GET /api/user/task":                  "Get user tasks (requires auth)",
			"POST /api/user/payments":             "Record payment (requires auth)",
			"GET /api/user/profile":               "Get user profile (requires auth)",
		},
	})
}

func (h *UserHandler) WalletNonce(c *gin.Context) {
	walletNonce(c, h.authLogic, auth.NamespaceUser)
}

func (h *UserHandler) WalletSignIn(c *gin.Context) {
	var body SignInBody
	if !bindJSON(c, &body) {
		return
	}
	res, err := h.authLogic.SignIn(auth.NamespaceUser, body.Variant())
	if err != nil {
		respondError(c, err, "Internal server error")
		return
	}
	SuccessResponse(c, http.StatusOK, "Login successful", gin.H{
		"token": res.Token,
		"user":  AccountResponse{ID: res.AccountID, WalletAddress: res.WalletAddress},
	})
}

func (h *UserHandler) UploadPresignedURL(c *gin.Context) {
	presign(c, h.uploadLogic, storage.FolderUploads)
}

func (h *UserHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskLogic.CreateTask(c.GetString(userIDKey), logic.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      string(req.Amount),
		FileURL:     req.FileURL,
	})
	if err != nil {
		respondError(c, err, "Failed to create task")
		return
	}
	SuccessResponse(c, http.StatusOK, "Task created successfully with CloudFront URL", gin.H{
		"task": ToTaskResponse(task, h.decimals),
	})
}

func (h *UserHandler) ListTasks(c *gin.Context) {
	tasks, err := h.taskLogic.ListTasksForOwner(c.GetString(userIDKey))
	if err != nil {
		respondError(c, err, "Failed to fetch tasks")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"tasks": ToOwnedTaskResponseList(tasks, h.decimals)})
}

func (h *UserHandler) RecordPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Valid amount is required")
		return
	}
	payment, err := h.paymentLogic.RecordPayment(c.GetString(userIDKey), req.Amount)
	if err != nil {
		respondError(c, err, "Failed to process payment")
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment recorded successfully", gin.H{
		"payment": ToPaymentResponse(payment, h.decimals),
	})
}

func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.profileLogic.UserProfile(c.GetString(userIDKey))
	if err != nil {
		respondError(c, err, "Failed to fetch profile")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"user": ToUserProfileResponse(profile, h.decimals)})
}

// walletNonce is shared by both namespaces.
func walletNonce(c *gin.Context, authLogic *logic.AuthLogic, ns auth.Namespace) {
	var req NonceRequest
	if !bindJSON(c, &req) {
		return
	}
	message, err := authLogic.IssueNonce(ns, req.PublicKey)
	if err != nil {
		respondError(c, err, "Error generating nonce")
		return
	}
	SuccessResponse(c, http.StatusOK, message, nil)
}

func presign(c *gin.Context, uploadLogic *logic.UploadLogic, folder storage.Folder) {
	var req PresignRequest
	if !bindJSON(c, &req) {
		return
	}
	upload, err := uploadLogic.RequestUpload(c.Request.Context(), folder, req.FileName, req.ContentType)
	if err != nil {
		respondError(c, err, "Failed to generate pre-signed URL")
		return
	}
	SuccessResponse(c, http.StatusOK, "Pre-signed URL generated successfully", gin.H{
		"signedUrl": upload.SignedURL,
		"key":       upload.Key,
	})
}
