package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOTPStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryOTPStore()
	store.now = func() time.Time { return now }
	mailer := &captureMailer{codes: map[string]string{}}
	svc := NewOTPService(store, mailer, time.Minute)

	require.NoError(t, svc.RequestCode(ctx, "a@b.co"))
	require.NoError(t, svc.VerifyCode(ctx, "a@b.co", mailer.codes["a@b.co"]))
	assert.ErrorIs(t, svc.VerifyCode(ctx, "a@b.co", mailer.codes["a@b.co"]), ErrCodeExpired)

	require.NoError(t, svc.RequestCode(ctx, "a@b.co"))
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, svc.VerifyCode(ctx, "a@b.co", mailer.codes["a@b.co"]), ErrCodeExpired)

	require.NoError(t, svc.RequestCode(ctx, "a@b.co"))
	for i := 0; i < maxVerifyAttempts; i++ {
		n, err := store.IncrAttempts(ctx, "a@b.co", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), n)
	}
	assert.ErrorIs(t, svc.VerifyCode(ctx, "a@b.co", mailer.codes["a@b.co"]), ErrTooManyAttempts)
}
