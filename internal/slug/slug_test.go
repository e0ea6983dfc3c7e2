package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := New()
		assert.NoError(t, err)
		assert.Len(t, s, Length, "生成的 slug 长度应为 %d", Length)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(Charset, r), "字符 %q 应在字母表内", r)
		}
		seen[s] = true
	}
	// 100 个样本全部相同的概率可以忽略不计
	assert.Greater(t, len(seen), 1, "生成结果不应全部相同")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("abc123"))
	assert.NoError(t, Validate("My-Link_01"))
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("含中文"))
	assert.Error(t, Validate("has space"))
	assert.Error(t, Validate("semi;colon"))
	assert.Error(t, Validate(strings.Repeat("a", MaxLength+1)))
	assert.NoError(t, Validate(strings.Repeat("a", MaxLength)))
}
