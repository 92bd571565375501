package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// RandomDigits 生成指定位数的随机数字字符串
func RandomDigits(length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic("generate random digit failed")
		}
		sb.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return sb.String()
}

// StripNonDigits 去掉字符串中的所有非数字字符
func StripNonDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
