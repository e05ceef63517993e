package utils

import (
	"crypto/rand"
)

const tradeNoAlphabet = "abcdefghijklmnopqrstuvwxyz1234567890"
const tradeNoLength = 20

// NewTradeNo generates the external reference handed to the payment
// gateway: 20 lowercase alphanumeric characters.
func NewTradeNo() (string, error) {
	buf := make([]byte, tradeNoLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tradeNoAlphabet[int(b)%len(tradeNoAlphabet)]
	}
	return string(buf), nil
}
