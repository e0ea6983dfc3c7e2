package slug

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Charset 包含用于生成 slug 的所有字符（共 62 个）
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length 是自动生成的 slug 的长度。62^6 ≈ 5.68×10^10 种组合，
	// 碰撞重试耗尽在实践中几乎不可能发生。
	Length = 6
	// MaxLength 是自定义 slug 允许的最大长度
	MaxLength = 64
)

// New 使用加密安全的随机数生成器生成一个固定长度的候选 slug。
// 唯一性不在这里保证，由数据库唯一索引兜底。
func New() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Charset))))
		if err != nil {
			return "", err
		}
		b[i] = Charset[num.Int64()]
	}
	return string(b), nil
}

// Validate 校验自定义 slug：非空、长度受限、只允许字母数字和 - _。
// 匹配是大小写敏感的，"Abc" 和 "abc" 是两个不同的 slug。
func Validate(s string) error {
	if s == "" {
		return fmt.Errorf("slug 不能为空")
	}
	if len(s) > MaxLength {
		return fmt.Errorf("slug 长度不能超过 %d", MaxLength)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("slug 含有非法字符 %q", r)
		}
	}
	return nil
}
