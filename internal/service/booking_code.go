package service

import (
	"crypto/rand"
	"fmt"
)

// 去掉 0/O、1/I 等易混淆字元；長度 32 整除 256，取模不會偏斜
const bookingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const BookingCodeLength = 8

// CodeGenerator 產生給使用者看的訂位代碼，唯一性由資料庫約束保證
type CodeGenerator func() (string, error)

func GenerateBookingCode() (string, error) {
	buf := make([]byte, BookingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = bookingCodeAlphabet[int(b)%len(bookingCodeAlphabet)]
	}
	return string(buf), nil
}
