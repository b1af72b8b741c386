package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// 金額以最小貨幣單位 (分) 的 int64 儲存，小數點後 2 位
const (
	CurrencyScale    = 100
	currencyExponent = 2
)

// 解析前的輸入上限，避免 "1e20000000" 之類的輸入展開成巨大的數字
const (
	maxAmountLength = 32
	maxAmountDigits = 32
	minExponent     = -maxAmountDigits
	maxExponent     = 15
)

// MaxMoney 單筆金額與帳戶餘額的上限 (999,999,999,999.99)
const MaxMoney Money = 99999999999999

// Money 金額，單位為分
type Money int64

// ParseMoney 將十進位字串解析為 Money
//
// 參數:
//
//	s: string - 十進位字串，如 "10", "10.5", "10.50"
//
// 回傳值:
//
//	Money: 解析後的金額
//	error: 格式錯誤、超過 2 位小數或超過上限時回傳 ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	if len(s) > maxAmountLength {
		return 0, fmt.Errorf("%w: amount is too long", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: not a decimal number", ErrInvalidAmount)
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal 將 decimal 轉為 Money，不允許超過 2 位有效小數
// 錯誤訊息不帶入原始數值 (會回給呼叫端)
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	// 先檢查指數與位數，之後的 Round / 比較才不會展開成巨大的數字
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidAmount)
	}
	if d.NumDigits() > maxAmountDigits {
		return 0, fmt.Errorf("%w: amount has too many digits", ErrInvalidAmount)
	}
	if !d.Equal(d.Round(currencyExponent)) {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, currencyExponent)
	}
	if d.Abs().GreaterThan(MaxMoney.Decimal()) {
		return 0, fmt.Errorf("%w: exceeds maximum %s", ErrInvalidAmount, MaxMoney)
	}
	return Money(d.Shift(currencyExponent).IntPart()), nil
}

// Decimal 轉回 decimal.Decimal
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -currencyExponent)
}

// String 固定 2 位小數，如 "50.00"
func (m Money) String() string {
	return m.Decimal().StringFixed(currencyExponent)
}

// IsPositive 金額 > 0
func (m Money) IsPositive() bool {
	return m > 0
}

// MarshalJSON 輸出為 JSON number (固定 2 位小數)
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON 接受 JSON number 或字串
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		return fmt.Errorf("%w: null amount", ErrInvalidAmount)
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
