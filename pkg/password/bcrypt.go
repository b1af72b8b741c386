package password

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher 以 bcrypt 雜湊密碼
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cost 超出 bcrypt 範圍時使用 bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash 產生雜湊 (內含 salt)
func (h *BcryptHasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare 比對密碼與雜湊
func (h *BcryptHasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
