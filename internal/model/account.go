package model

// User posts tasks and records payments.
type User struct {
	Base
	WalletAddress string `json:"walletAddress" gorm:"uniqueIndex;not null"`
	Nonce         string `json:"-" gorm:"not null"`

	Tasks    []Task    `json:"tasks,omitempty" gorm:"foreignKey:UserID"`
	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:UserID"`
}

// Worker submits work and accrues rewards.
//
// PendingBalance is earned but not yet paid out; LockedBalance has been moved
// through a payout. Both are in the chain's smallest unit and never negative.
type Worker struct {
	Base
	WalletAddress  string `json:"walletAddress" gorm:"uniqueIndex;not null"`
	Nonce          string `json:"-" gorm:"not null"`
	PendingBalance int64  `json:"pendingBalance" gorm:"not null;default:0"`
	LockedBalance  int64  `json:"lockedBalance" gorm:"not null;default:0"`

	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:WorkerID"`
}
