package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func TestQRService_GenerateReceiveQR(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	service := NewQRService(redisClient, 5*time.Minute)
	service.newCode = fixedCode("code123")
	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	service.now = func() time.Time { return issuedAt }

	t.Run("caches the pay request", func(t *testing.T) {
		payload, err := json.Marshal(PayRequest{Username: "alice", Amount: 500, CreatedAt: issuedAt.Unix()})
		require.NoError(t, err)
		mock.ExpectSet("qr:code123", payload, 5*time.Minute).SetVal("OK")

		code, image, err := service.GenerateReceiveQR(context.Background(), "alice", 500)
		require.NoError(t, err)
		assert.Equal(t, "code123", code)

		png, err := base64.StdEncoding.DecodeString(image)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), png[:4])
	})

	t.Run("negative amount", func(t *testing.T) {
		_, _, err := service.GenerateReceiveQR(context.Background(), "alice", -1)
		assert.Error(t, err)
	})

	t.Run("redis failure", func(t *testing.T) {
		payload, err := json.Marshal(PayRequest{Username: "alice", CreatedAt: issuedAt.Unix()})
		require.NoError(t, err)
		mock.ExpectSet("qr:code123", payload, 5*time.Minute).SetErr(errors.New("redis down"))

		_, _, err = service.GenerateReceiveQR(context.Background(), "alice", 0)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQRService_ResolveQR(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	service := NewQRService(redisClient, 5*time.Minute)

	t.Run("known code", func(t *testing.T) {
		payload, _ := json.Marshal(PayRequest{Username: "alice", Amount: 250})
		mock.ExpectGet("qr:abc").SetVal(string(payload))

		req, err := service.ResolveQR(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, int64(250), req.Amount)
	})

	t.Run("codes are reusable until they expire", func(t *testing.T) {
		payload, _ := json.Marshal(PayRequest{Username: "alice"})
		mock.ExpectGet("qr:abc").SetVal(string(payload))

		req, err := service.ResolveQR(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, int64(0), req.Amount)
	})

	t.Run("expired code", func(t *testing.T) {
		mock.ExpectGet("qr:gone").RedisNil()

		_, err := service.ResolveQR(context.Background(), "gone")
		assert.ErrorIs(t, err, ErrQRExpired)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
