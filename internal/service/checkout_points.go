package service

import (
	"sort"

	"github.com/digibuy-next/internal/constants"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RewardRule 商品返积分规则
type RewardRule struct {
	Percentage decimal.Decimal
	MaxPoints  decimal.Decimal
}

// LinePoints 单行积分明细
type LinePoints struct {
	ItemID     uint
	LineTotal  decimal.Decimal
	Covered    decimal.Decimal
	Rewardable decimal.Decimal
	Reward     decimal.Decimal
}

// PointsAllocation 积分分摊结果
type PointsAllocation struct {
	PointsEarned    decimal.Decimal
	RemainingBudget decimal.Decimal
	Lines           []LinePoints
}

// AllocatePoints 按确定顺序把使用的积分分摊到各行，积分覆盖的部分不再返积分。
// 缺少规则的商品不返积分；非激活行不参与。
func AllocatePoints(lines []SettlementLine, pointsToUse decimal.Decimal, rules map[uint]RewardRule, order string) PointsAllocation {
	budget := pointsToUse
	if budget.IsNegative() {
		budget = decimal.Zero
	}
	earned := decimal.Zero
	ordered := orderLinesForPoints(lines, order)
	details := make([]LinePoints, 0, len(ordered))

	for _, line := range ordered {
		lineTotal := line.Total()
		covered := decimal.Min(budget, lineTotal)
		budget = budget.Sub(covered)
		rewardable := lineTotal.Sub(covered)

		reward := decimal.Zero
		if rule, ok := rules[line.ProductID]; ok && rule.Percentage.IsPositive() {
			reward = rewardable.Mul(rule.Percentage).Div(hundred).Round(2)
			maxPoints := rule.MaxPoints
			if maxPoints.IsNegative() {
				maxPoints = decimal.Zero
			}
			reward = decimal.Min(reward, maxPoints)
		}
		earned = earned.Add(reward)
		details = append(details, LinePoints{
			ItemID:     line.ItemID,
			LineTotal:  lineTotal,
			Covered:    covered,
			Rewardable: rewardable,
			Reward:     reward,
		})
	}

	return PointsAllocation{
		PointsEarned:    earned,
		RemainingBudget: budget,
		Lines:           details,
	}
}

// orderLinesForPoints 过滤非激活行并排序，默认按行 ID（插入顺序），价格排序时以行 ID 兜底
func orderLinesForPoints(lines []SettlementLine, order string) []SettlementLine {
	active := make([]SettlementLine, 0, len(lines))
	for _, line := range lines {
		if line.Active {
			active = append(active, line)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		switch order {
		case constants.PointsAllocationPriceDesc:
			if cmp := a.Total().Cmp(b.Total()); cmp != 0 {
				return cmp > 0
			}
		case constants.PointsAllocationPriceAsc:
			if cmp := a.Total().Cmp(b.Total()); cmp != 0 {
				return cmp < 0
			}
		}
		return a.ItemID < b.ItemID
	})
	return active
}
