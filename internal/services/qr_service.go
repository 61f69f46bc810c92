package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

// ErrQRExpired is returned for unknown or expired receive codes.
var ErrQRExpired = errors.New("invalid or expired QR code")

// PayRequest is what a receive QR resolves to. Amount 0 leaves the amount
// to the payer.
type PayRequest struct {
	Username  string `json:"username" example:"alice"`
	Amount    int64  `json:"amount,omitempty" example:"500"`
	CreatedAt int64  `json:"created_at"`
}

type QRService struct {
	redis   *redis.Client
	ttl     time.Duration
	newCode func() (string, error)
	now     func() time.Time
}

func NewQRService(redis *redis.Client, ttl time.Duration) *QRService {
	return &QRService{
		redis:   redis,
		ttl:     ttl,
		newCode: generateNonce,
		now:     time.Now,
	}
}

func qrKey(code string) string {
	return fmt.Sprintf("qr:%s", code)
}

// GenerateReceiveQR caches a pay request for username and returns its code
// with a base64 PNG of it. The code stays valid until the TTL runs out.
func (s *QRService) GenerateReceiveQR(ctx context.Context, username string, amount int64) (string, string, error) {
	if amount < 0 {
		return "", "", fmt.Errorf("amount must not be negative")
	}

	jsonData, err := json.Marshal(PayRequest{
		Username:  username,
		Amount:    amount,
		CreatedAt: s.now().Unix(),
	})
	if err != nil {
		return "", "", err
	}

	qrCode, err := s.newCode()
	if err != nil {
		return "", "", err
	}

	if err := s.redis.Set(ctx, qrKey(qrCode), jsonData, s.ttl).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(qrCode, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return qrCode, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ResolveQR returns the pay request behind code.
func (s *QRService) ResolveQR(ctx context.Context, code string) (*PayRequest, error) {
	data, err := s.redis.Get(ctx, qrKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQRExpired
	}
	if err != nil {
		return nil, err
	}

	var req PayRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
