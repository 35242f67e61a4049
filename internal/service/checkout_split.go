package service

import "github.com/shopspring/decimal"

// PaymentSplit 钱包与银行卡分摊
type PaymentSplit struct {
	WalletDeduction decimal.Decimal
	CardCharge      decimal.Decimal
}

// SplitPayment 钱包优先抵扣，剩余部分走银行卡
func SplitPayment(payable, walletBalance decimal.Decimal) PaymentSplit {
	if !payable.IsPositive() {
		return PaymentSplit{WalletDeduction: decimal.Zero, CardCharge: decimal.Zero}
	}
	wallet := walletBalance
	if wallet.IsNegative() {
		wallet = decimal.Zero
	}
	deduction := decimal.Min(payable, wallet)
	return PaymentSplit{
		WalletDeduction: deduction,
		CardCharge:      payable.Sub(deduction),
	}
}

// RequiresCard 是否需要银行卡授权
func (p PaymentSplit) RequiresCard() bool {
	return p.CardCharge.IsPositive()
}
