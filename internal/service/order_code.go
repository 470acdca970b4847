package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/campusdash/internal/constants"
)

const orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateOrderCode 生成 ORD-YYYYMMDD-XXXXXX 格式订单号
func generateOrderCode(now time.Time) (string, error) {
	suffix, err := randomString(orderCodeAlphabet, 6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", constants.OrderCodePrefix, now.Format("20060102"), suffix), nil
}

// generateVerificationCode 生成纯数字一次性签收码
func generateVerificationCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	return randomString("0123456789", length)
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
