package logic

import (
	"errors"

	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentLogic records user payments. No funds move.
type PaymentLogic struct {
	db       *gorm.DB
	decimals int32
}

func NewPaymentLogic(db *gorm.DB, decimals int32) *PaymentLogic {
	return &PaymentLogic{db: db, decimals: decimals}
}

// RecordPayment stores amount, given in display units, in the smallest unit.
func (p *PaymentLogic) RecordPayment(userID string, amount decimal.Decimal) (*model.Payment, error) {
	if !amount.IsPositive() {
		return nil, validation("Valid amount is required")
	}
	units, err := chain.FromDisplay(amount, p.decimals)
	if err != nil || units <= 0 {
		return nil, validation("Valid amount is required")
	}

	var user model.User
	if err := p.db.Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("Failed to process payment", err)
	}

	payment := &model.Payment{Amount: units, UserID: userID}
	if err := p.db.Create(payment).Error; err != nil {
		return nil, internal("Failed to process payment", err)
	}
	return payment, nil
}
