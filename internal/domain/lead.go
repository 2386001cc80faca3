package domain

import "github.com/shopspring/decimal"

// Lead is a prospective customer who has not yet completed onboarding
type Lead struct {
	BusinessName string          `json:"businessName" validate:"required,max=200"`
	ContactName  string          `json:"contactName" validate:"required,max=200"`
	Email        string          `json:"email" validate:"required,email"`
	Phone        string          `json:"phone,omitempty" validate:"omitempty,max=40"`
	Category     string          `json:"category" validate:"required"`
	WeeklySpend  decimal.Decimal `json:"weeklySpend"`
}
