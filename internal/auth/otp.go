package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCodeExpired     = errors.New("code expired or not requested")
	ErrCodeMismatch    = errors.New("invalid code")
	ErrTooManyAttempts = errors.New("too many attempts")
)

const maxVerifyAttempts = 5

// OTPStore 保存验证码哈希
type OTPStore interface {
	Save(ctx context.Context, email, hash string, ttl time.Duration) error
	Load(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
	// IncrAttempts 记录一次校验并返回累计次数
	IncrAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error)
}

// Mailer 发送验证码邮件
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogMailer 把验证码写到日志，本地开发用
type LogMailer struct{}

func (LogMailer) SendCode(_ context.Context, email, code string) error {
	logger.Info("login code for %s: %s", email, code)
	return nil
}

// RedisOTPStore 验证码存 redis，过期自动删除
type RedisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

func codeKey(email string) string     { return "otp:code:" + email }
func attemptsKey(email string) string { return "otp:attempts:" + email }

func (s *RedisOTPStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, codeKey(email), hash, ttl)
	pipe.Del(ctx, attemptsKey(email))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisOTPStore) Load(ctx context.Context, email string) (string, error) {
	hash, err := s.rdb.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeExpired
	}
	return hash, err
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, codeKey(email), attemptsKey(email)).Err()
}

func (s *RedisOTPStore) IncrAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, attemptsKey(email))
	pipe.Expire(ctx, attemptsKey(email), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// OTPService 邮箱一次性验证码登录
type OTPService struct {
	store  OTPStore
	mailer Mailer
	ttl    time.Duration
}

func NewOTPService(store OTPStore, mailer Mailer, ttl time.Duration) *OTPService {
	return &OTPService{store: store, mailer: mailer, ttl: ttl}
}

// NormalizeEmail 去空格并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestCode 生成 6 位验证码并发送
func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email %q", email)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.store.Save(ctx, email, string(hash), s.ttl); err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	return s.mailer.SendCode(ctx, email, code)
}

// VerifyCode 校验验证码，成功后验证码作废
func (s *OTPService) VerifyCode(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	hash, err := s.store.Load(ctx, email)
	if err != nil {
		return err
	}

	n, err := s.store.IncrAttempts(ctx, email, s.ttl)
	if err != nil {
		return err
	}
	if n > maxVerifyAttempts {
		if err := s.store.Delete(ctx, email); err != nil {
			logger.Warn("Failed to clear login code for %s: %v", email, err)
		}
		return ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(code))); err != nil {
		return ErrCodeMismatch
	}
	return s.store.Delete(ctx, email)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
