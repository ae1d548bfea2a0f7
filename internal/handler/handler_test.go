package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{logic.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{logic.ErrAlreadySubmitted, http.StatusConflict, "You have already submitted for this task"},
		{logic.ErrNoPendingBalance, http.StatusBadRequest, "No pending balance to payout"},
		{logic.ErrInvalidSignature, http.StatusUnauthorized, "Invalid signature"},
		{&logic.Error{Kind: logic.KindExternal, Message: "Failed to generate pre-signed URL", Err: errors.New("secret detail")}, http.StatusBadGateway, "Failed to generate pre-signed URL"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "fallback"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tt.err, "fallback")

		body := decode(t, rec)
		if rec.Code != tt.code || body["success"] != false || body["message"] != tt.msg {
			t.Errorf("respondError(%v) = %d %v, want %d %q", tt.err, rec.Code, body, tt.code, tt.msg)
		}
	}
}

func TestWritePayoutStatus(t *testing.T) {
	h := &WorkerHandler{decimals: 9}
	tests := []struct {
		name    string
		status  model.PayoutStatus
		settled bool
		code    int
		success bool
	}{
		{"confirmed", model.PayoutStatusConfirmed, true, http.StatusOK, true},
		{"failed and kept pending", model.PayoutStatusFailed, false, http.StatusBadGateway, false},
		{"failed but settled", model.PayoutStatusFailed, true, http.StatusOK, true},
		{"awaiting confirmation", model.PayoutStatusTransferSent, false, http.StatusAccepted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			h.writePayout(c, &logic.PayoutResult{
				Balance:      logic.Balance{Pending: 0, Locked: 500_000_000},
				PayoutAmount: 500_000_000,
				Payout:       &model.Payout{Status: tt.status, Amount: 500_000_000},
				Settled:      tt.settled,
			})

			body := decode(t, rec)
			if rec.Code != tt.code || body["success"] != tt.success {
				t.Fatalf("writePayout = %d %v", rec.Code, body)
			}
			if body["payoutAmount"].(float64) != 0.5 {
				t.Fatalf("payoutAmount = %v", body["payoutAmount"])
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	if NewRateLimiter(0) != nil {
		t.Fatal("disabled limiter should be nil")
	}

	now := time.Unix(1_700_000_000, 0)
	l := NewRateLimiter(2)
	l.now = func() time.Time { return now }

	if !l.allow("1.1.1.1") || !l.allow("1.1.1.1") {
		t.Fatal("burst rejected")
	}
	if l.allow("1.1.1.1") {
		t.Fatal("third request in the same instant allowed")
	}
	if !l.allow("2.2.2.2") {
		t.Fatal("limit leaked across clients")
	}

	now = now.Add(30 * time.Second)
	if !l.allow("1.1.1.1") {
		t.Fatal("token not refilled after 30s")
	}

	now = now.Add(time.Hour)
	l.allow("3.3.3.3")
	if _, ok := l.visitors["2.2.2.2"]; ok {
		t.Fatal("idle visitor not swept")
	}

	var nilLimiter *RateLimiter
	r := gin.New()
	r.GET("/", nilLimiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("nil limiter blocked request: %d", rec.Code)
	}
}

func TestSignInBodyVariant(t *testing.T) {
	legacy := SignInBody{WalletAddress: "abc"}
	if _, ok := legacy.Variant().(logic.AddressSignIn); !ok {
		t.Fatalf("walletAddress only should be an address sign-in")
	}
	mixed := SignInBody{PublicKey: "abc", WalletAddress: "abc"}
	if _, ok := mixed.Variant().(logic.SignatureSignIn); !ok {
		t.Fatalf("publicKey should select signature sign-in")
	}
	if _, ok := (SignInBody{}).Variant().(logic.SignatureSignIn); !ok {
		t.Fatalf("empty body should default to signature sign-in")
	}
}

func TestAmountText(t *testing.T) {
	tests := map[string]AmountText{
		`{"amount": 1000}`:   "1000",
		`{"amount": "250"}`:  "250",
		`{"amount": null}`:   "",
		`{"amount": 1.5}`:    "1.5",
		`{"amount": "-3.0"}`: "-3.0",
		`{"amount": 1e9}`:    "1e9",
	}
	for in, want := range tests {
		var req CreateTaskRequest
		if err := json.Unmarshal([]byte(in), &req); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if req.Amount != want {
			t.Errorf("Unmarshal(%s) amount = %q, want %q", in, req.Amount, want)
		}
	}
}
