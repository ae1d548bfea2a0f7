package handler

import (
	"time"

	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/GANESH4511/Dataverse/internal/model"
)

// Amounts named *Display are in whole currency units; every other amount
// is in the chain's smallest unit.

// AccountResponse identifies a signed-in user or worker.
type AccountResponse struct {
	ID             string   `json:"id"`
	WalletAddress  string   `json:"walletAddress"`
	PendingBalance *float64 `json:"pendingBalance,omitempty"`
	LockedBalance  *float64 `json:"lockedBalance,omitempty"`
}

// TaskResponse is a task as returned by every task listing.
type TaskResponse struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Description      *string                  `json:"description"`
	FileURL          string                   `json:"fileUrl"`
	Status           model.TaskStatus         `json:"status"`
	Amount           int64                    `json:"amount"`
	AmountDisplay    float64                  `json:"amountDisplay"`
	CreatedAt        time.Time                `json:"createdAt"`
	SubmissionsCount int64                    `json:"submissionsCount"`
	HasSubmitted     *bool                    `json:"hasSubmitted,omitempty"`
	Submissions      []TaskSubmissionResponse `json:"submissions,omitempty"`
}

// TaskSubmissionResponse is a submission nested under its task.
type TaskSubmissionResponse struct {
	ID        string    `json:"id"`
	FileURL   string    `json:"fileUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Worker    struct {
		ID string `json:"id"`
	} `json:"worker"`
}

// SubmissionResponse is a newly created submission.
type SubmissionResponse struct {
	ID        string    `json:"id"`
	FileURL   string    `json:"fileUrl"`
	TaskID    string    `json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkerSubmissionResponse is a submission in the worker's history.
type WorkerSubmissionResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	FileURL   string    `json:"fileUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Reward    float64   `json:"reward"`
}

type BalanceResponse struct {
	Pending float64 `json:"pending"`
	Locked  float64 `json:"locked"`
}

type PaymentResponse struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// PayoutResponse is one payout attempt.
type PayoutResponse struct {
	ID            string             `json:"id"`
	Amount        float64            `json:"amount"`
	Address       string             `json:"address"`
	Status        model.PayoutStatus `json:"status"`
	Signature     string             `json:"signature,omitempty"`
	Skipped       bool               `json:"skipped"`
	FailureReason string             `json:"failureReason,omitempty"`
	RetryOf       *string            `json:"retryOf,omitempty"`
	Retried       bool               `json:"retried"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type UserStatsResponse struct {
	TotalTasks      int64   `json:"totalTasks"`
	CompletedTasks  int64   `json:"completedTasks"`
	InProgressTasks int64   `json:"inProgressTasks"`
	TotalPayments   float64 `json:"totalPayments"`
}

type UserProfileResponse struct {
	ID            string            `json:"id"`
	WalletAddress string            `json:"walletAddress"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Stats         UserStatsResponse `json:"stats"`
}

type WorkerStatsResponse struct {
	TotalSubmissions int64   `json:"totalSubmissions"`
	PendingBalance   float64 `json:"pendingBalance"`
	LockedBalance    float64 `json:"lockedBalance"`
	CompletedTasks   int64   `json:"completedTasks"`
}

type WorkerProfileResponse struct {
	ID            string              `json:"id"`
	WalletAddress string              `json:"walletAddress"`
	CreatedAt     time.Time           `json:"createdAt"`
	Stats         WorkerStatsResponse `json:"stats"`
}

// ToTaskResponse converts a task.
func ToTaskResponse(task *model.Task, decimals int32) TaskResponse {
	return TaskResponse{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		FileURL:          task.FileURL,
		Status:           task.Status,
		Amount:           task.Amount,
		AmountDisplay:    chain.DisplayFloat(task.Amount, decimals),
		CreatedAt:        task.CreatedAt,
		SubmissionsCount: int64(len(task.Submissions)),
	}
}

// ToOwnedTaskResponseList converts an owner's tasks with their submissions.
func ToOwnedTaskResponseList(tasks []model.Task, decimals int32) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp := ToTaskResponse(&tasks[i], decimals)
		resp.Submissions = make([]TaskSubmissionResponse, 0, len(tasks[i].Submissions))
		for _, s := range tasks[i].Submissions {
			sub := TaskSubmissionResponse{ID: s.ID, FileURL: s.FileURL, CreatedAt: s.CreatedAt}
			sub.Worker.ID = s.WorkerID
			resp.Submissions = append(resp.Submissions, sub)
		}
		responses = append(responses, resp)
	}
	return responses
}

// ToTaskSummaryResponseList converts the marketplace listing. withFlag
// controls whether hasSubmitted is included.
func ToTaskSummaryResponseList(summaries []logic.TaskSummary, decimals int32, withFlag bool) []TaskResponse {
	responses := make([]TaskResponse, 0, len(summaries))
	for i := range summaries {
		resp := ToTaskResponse(&summaries[i].Task, decimals)
		resp.SubmissionsCount = summaries[i].SubmissionsCount
		if withFlag {
			submitted := summaries[i].HasSubmitted
			resp.HasSubmitted = &submitted
		}
		responses = append(responses, resp)
	}
	return responses
}

func ToSubmissionResponse(s *model.Submission) SubmissionResponse {
	return SubmissionResponse{ID: s.ID, FileURL: s.FileURL, TaskID: s.TaskID, CreatedAt: s.CreatedAt}
}

// ToWorkerSubmissionResponseList converts a worker's history; reward is
// the credit each submission earned.
func ToWorkerSubmissionResponseList(subs []model.Submission, reward func(int64) int64, decimals int32) []WorkerSubmissionResponse {
	responses := make([]WorkerSubmissionResponse, 0, len(subs))
	for _, s := range subs {
		resp := WorkerSubmissionResponse{ID: s.ID, TaskID: s.TaskID, FileURL: s.FileURL, CreatedAt: s.CreatedAt}
		if s.Task != nil {
			resp.TaskTitle = s.Task.Title
			resp.Reward = chain.DisplayFloat(reward(s.Task.Amount), decimals)
		}
		responses = append(responses, resp)
	}
	return responses
}

func ToBalanceResponse(b logic.Balance, decimals int32) BalanceResponse {
	return BalanceResponse{
		Pending: chain.DisplayFloat(b.Pending, decimals),
		Locked:  chain.DisplayFloat(b.Locked, decimals),
	}
}

func ToPaymentResponse(p *model.Payment, decimals int32) PaymentResponse {
	return PaymentResponse{ID: p.ID, Amount: chain.DisplayFloat(p.Amount, decimals), CreatedAt: p.CreatedAt}
}

func ToPayoutResponse(p *model.Payout, decimals int32) PayoutResponse {
	return PayoutResponse{
		ID:            p.ID,
		Amount:        chain.DisplayFloat(p.Amount, decimals),
		Address:       p.Address,
		Status:        p.Status,
		Signature:     p.Signature,
		Skipped:       p.Skipped,
		FailureReason: p.FailureReason,
		RetryOf:       p.RetryOf,
		Retried:       p.Retried,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToPayoutResponseList(payouts []model.Payout, decimals int32) []PayoutResponse {
	responses := make([]PayoutResponse, 0, len(payouts))
	for i := range payouts {
		responses = append(responses, ToPayoutResponse(&payouts[i], decimals))
	}
	return responses
}

func ToUserProfileResponse(p *logic.UserProfile, decimals int32) UserProfileResponse {
	return UserProfileResponse{
		ID:            p.User.ID,
		WalletAddress: p.User.WalletAddress,
		CreatedAt:     p.User.CreatedAt,
		UpdatedAt:     p.User.UpdatedAt,
		Stats: UserStatsResponse{
			TotalTasks:      p.Stats.TotalTasks,
			CompletedTasks:  p.Stats.CompletedTasks,
			InProgressTasks: p.Stats.InProgressTasks,
			TotalPayments:   chain.DisplayFloat(p.Stats.TotalPayments, decimals),
		},
	}
}

func ToWorkerProfileResponse(p *logic.WorkerProfile, decimals int32) WorkerProfileResponse {
	return WorkerProfileResponse{
		ID:            p.Worker.ID,
		WalletAddress: p.Worker.WalletAddress,
		CreatedAt:     p.Worker.CreatedAt,
		Stats: WorkerStatsResponse{
			TotalSubmissions: p.Stats.TotalSubmissions,
			PendingBalance:   chain.DisplayFloat(p.Stats.PendingBalance, decimals),
			LockedBalance:    chain.DisplayFloat(p.Stats.LockedBalance, decimals),
			CompletedTasks:   p.Stats.CompletedTasks,
		},
	}
}
