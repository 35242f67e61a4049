package service

import (
	"github.com/digibuy-next/internal/models"

	"github.com/shopspring/decimal"
)

// SettlementLine 参与结算的订单行
type SettlementLine struct {
	ItemID    uint
	ProductID uint
	UnitPrice decimal.Decimal
	Quantity  int
	Active    bool
}

// Total 行金额
func (l SettlementLine) Total() decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// AmountInput 金额计算输入
type AmountInput struct {
	Lines         []SettlementLine
	Discount      decimal.Decimal
	UsePoints     bool
	PointsBalance decimal.Decimal
}

// AmountBreakdown 金额计算结果
type AmountBreakdown struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal // 实际生效的优惠金额（不超过小计）
	AfterDiscount decimal.Decimal
	PointsToUse   decimal.Decimal
	Payable       decimal.Decimal
}

// CalculateOrderAmount 计算应付金额：小计 - 优惠 - 积分，任何一步都不小于 0
func CalculateOrderAmount(input AmountInput) AmountBreakdown {
	subtotal := decimal.Zero
	for _, line := range input.Lines {
		if !line.Active {
			continue
		}
		subtotal = subtotal.Add(line.Total())
	}
	subtotal = subtotal.Round(2)

	discount := input.Discount.Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	afterDiscount := subtotal.Sub(discount)

	pointsToUse := decimal.Zero
	if input.UsePoints && input.PointsBalance.IsPositive() {
		pointsToUse = decimal.Min(input.PointsBalance.Round(2), afterDiscount)
	}

	return AmountBreakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: afterDiscount,
		PointsToUse:   pointsToUse,
		Payable:       afterDiscount.Sub(pointsToUse),
	}
}

func settlementLinesFromItems(items []models.OrderItem) []SettlementLine {
	lines := make([]SettlementLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, SettlementLine{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice.Decimal,
			Quantity:  item.Quantity,
			Active:    item.IsActive,
		})
	}
	return lines
}
