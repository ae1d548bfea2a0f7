package model

// Payment is a bookkeeping record of a user-declared payment. No funds move.
type Payment struct {
	Base
	Amount int64  `json:"amount" gorm:"not null"` // smallest unit
	UserID string `json:"userId" gorm:"type:varchar(36);not null;index"`
}

// Payout is one attempt to move a worker's pending balance on chain.
type Payout struct {
	Base
	WorkerID      string       `json:"workerId" gorm:"type:varchar(36);not null;index"`
	Amount        int64        `json:"amount" gorm:"not null"`
	Address       string       `json:"address" gorm:"not null"`
	Status        PayoutStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	Signature     string       `json:"signature,omitempty" gorm:"index"`
	LastValid     uint64       `json:"-"` // Solana: last valid block height; EVM: nonce + 1
	Skipped       bool         `json:"skipped"`
	FailureReason string       `json:"failureReason,omitempty"`
	RetryOf       *string      `json:"retryOf,omitempty" gorm:"type:varchar(36);index"`
	Retried       bool         `json:"retried"`
}

// PayoutStatus tracks a payout attempt.
type PayoutStatus string

const (
	PayoutStatusRequested    PayoutStatus = "REQUESTED"     // amount reserved, nothing sent
	PayoutStatusTransferSent PayoutStatus = "TRANSFER_SENT" // signed and possibly broadcast
	PayoutStatusConfirmed    PayoutStatus = "CONFIRMED"
	PayoutStatusFailed       PayoutStatus = "FAILED"
)

// Final reports whether no further transition is possible.
func (s PayoutStatus) Final() bool {
	return s == PayoutStatusConfirmed || s == PayoutStatusFailed
}
