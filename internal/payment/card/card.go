package card

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInstrument = errors.New("card instrument invalid")
	ErrDeclined          = errors.New("card payment declined")
	ErrAmountInvalid     = errors.New("card charge amount invalid")
)

// 卡组织
const (
	BrandVisa       = "visa"
	BrandMasterCard = "mastercard"
	BrandAmex       = "amex"
	BrandDiscover   = "discover"
	BrandDiners     = "diners"
	BrandJCB        = "jcb"
)

var brandPatterns = []struct {
	brand   string
	pattern *regexp.Regexp
}{
	{brand: BrandVisa, pattern: regexp.MustCompile(`^4[0-9]{12}(?:[0-9]{3})?$`)},
	{brand: BrandMasterCard, pattern: regexp.MustCompile(`^5[1-5][0-9]{14}$`)},
	{brand: BrandAmex, pattern: regexp.MustCompile(`^3[47][0-9]{13}$`)},
	{brand: BrandDiscover, pattern: regexp.MustCompile(`^6(?:011|5[0-9]{2})[0-9]{12}$`)},
	{brand: BrandDiners, pattern: regexp.MustCompile(`^3(?:0[0-5]|[68][0-9])[0-9]{11}$`)},
	{brand: BrandJCB, pattern: regexp.MustCompile(`^35[0-9]{14}$`)},
}

var (
	holderNamePattern  = regexp.MustCompile(`^[A-Za-z\s]+$`)
	expiryMonthPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	expiryYearPattern  = regexp.MustCompile(`^\d{4}$`)
	cvvPattern         = regexp.MustCompile(`^\d{3,4}$`)
)

// Instrument 银行卡支付凭据（只在内存中流转，不落库）
type Instrument struct {
	Number      string `json:"number"`
	HolderName  string `json:"holder_name"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// Last4 卡号后四位
func (in Instrument) Last4() string {
	number := normalizeNumber(in.Number)
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}

// Authorization 授权结果
type Authorization struct {
	Reference    string          `json:"reference"`
	Brand        string          `json:"brand"`
	Last4        string          `json:"last4"`
	Amount       decimal.Decimal `json:"amount"`
	AuthorizedAt time.Time       `json:"authorized_at"`
}

// Config 授权器配置
type Config struct {
	ChargeLimit decimal.Decimal // 单笔上限，<=0 表示不限制
	Latency     time.Duration   // 模拟网关耗时
}

// Authorizer 校验卡信息并完成扣款授权
type Authorizer struct {
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	voided map[string]struct{}
}

// NewAuthorizer 创建授权器
func NewAuthorizer(cfg Config) *Authorizer {
	return &Authorizer{
		cfg:    cfg,
		now:    time.Now,
		voided: make(map[string]struct{}),
	}
}

// ParseChargeLimit 解析单笔上限配置
func ParseChargeLimit(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	limit, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse card charge limit: %w", err)
	}
	return limit, nil
}

// Authorize 校验卡信息后对指定金额授权
func (a *Authorizer) Authorize(ctx context.Context, in Instrument, amount decimal.Decimal) (*Authorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	now := a.now()
	brand, err := Validate(in, now)
	if err != nil {
		return nil, err
	}
	if a.cfg.Latency > 0 {
		timer := time.NewTimer(a.cfg.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if a.cfg.ChargeLimit.IsPositive() && amount.GreaterThan(a.cfg.ChargeLimit) {
		return nil, fmt.Errorf("%w: amount %s exceeds limit %s", ErrDeclined, amount.StringFixed(2), a.cfg.ChargeLimit.StringFixed(2))
	}
	return &Authorization{
		Reference:    "auth_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Brand:        brand,
		Last4:        in.Last4(),
		Amount:       amount.Round(2),
		AuthorizedAt: now,
	}, nil
}

// Void 撤销授权，重复撤销视为成功
func (a *Authorizer) Void(ctx context.Context, auth *Authorization) error {
	if auth == nil || strings.TrimSpace(auth.Reference) == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.voided[auth.Reference] = struct{}{}
	return nil
}

// IsVoided 查询授权是否已撤销
func (a *Authorizer) IsVoided(reference string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.voided[reference]
	return ok
}

// Validate 校验卡号、持卡人、有效期与 CVV，返回卡组织
func Validate(in Instrument, now time.Time) (string, error) {
	number := normalizeNumber(in.Number)
	brand := DetectBrand(number)
	if brand == "" {
		return "", fmt.Errorf("%w: card number", ErrInvalidInstrument)
	}
	holder := strings.TrimSpace(in.HolderName)
	if holder == "" || !holderNamePattern.MatchString(holder) {
		return "", fmt.Errorf("%w: holder name", ErrInvalidInstrument)
	}
	month := strings.TrimSpace(in.ExpiryMonth)
	year := strings.TrimSpace(in.ExpiryYear)
	if !expiryMonthPattern.MatchString(month) || !expiryYearPattern.MatchString(year) {
		return "", fmt.Errorf("%w: expiry", ErrInvalidInstrument)
	}
	if expired(month, year, now) {
		return "", fmt.Errorf("%w: expired", ErrInvalidInstrument)
	}
	if !cvvPattern.MatchString(strings.TrimSpace(in.CVV)) {
		return "", fmt.Errorf("%w: cvv", ErrInvalidInstrument)
	}
	return brand, nil
}

// DetectBrand 按卡号前缀与长度识别卡组织，未识别返回空串
func DetectBrand(number string) string {
	number = normalizeNumber(number)
	for _, item := range brandPatterns {
		if item.pattern.MatchString(number) {
			return item.brand
		}
	}
	return ""
}

// expired 卡在有效期月份的最后一刻之后视为过期（UTC）
func expired(month, year string, now time.Time) bool {
	m, err := strconv.Atoi(month)
	if err != nil {
		return true
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return true
	}
	endOfMonth := time.Date(y, time.Month(m)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	return endOfMonth.Before(now.UTC())
}

func normalizeNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
}
