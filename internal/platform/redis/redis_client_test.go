package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cache:6380", Config{Host: "cache", Port: "6380"}.Addr())
	assert.Equal(t, "cache:6379", Config{Host: "cache"}.Addr())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6390")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "2")

	assert.Equal(t, Config{Host: "localhost", Port: "6390", Password: "secret", DB: 2}, LoadConfig())
}

func TestNewRedisClient_NotConfigured(t *testing.T) {
	t.Parallel()

	rdb, err := NewRedisClient(context.Background(), Config{})
	assert.Nil(t, rdb)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPing(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")
	mock.ExpectPing().SetErr(errors.New("down"))

	check := Ping(rdb)
	assert.NoError(t, check(context.Background()))
	assert.Error(t, check(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
