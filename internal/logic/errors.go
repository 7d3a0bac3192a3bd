package logic

import (
	"errors"

	"github.com/chxdon9587/NextForD/internal/logger"
	"gorm.io/gorm"
)

// ErrorKind 错误分类，handler 据此选择 HTTP 状态码
type ErrorKind int

const (
	KindInvalid ErrorKind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindPrecondition
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindPrecondition:
		return "precondition"
	default:
		return "store"
	}
}

// Error 业务错误，Msg 可以直接展示给用户
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func invalid(msg string) *Error      { return newError(KindInvalid, msg) }
func forbidden(msg string) *Error    { return newError(KindForbidden, msg) }
func precondition(msg string) *Error { return newError(KindPrecondition, msg) }

// storeError 记录底层错误，对外只暴露 msg
func storeError(msg string, err error) *Error {
	logger.Error("%s: %v", msg, err)
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// wrapStore 业务错误原样返回，其它错误按存储错误处理
func wrapStore(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return storeError(msg, err)
}

// notFoundOr 记录不存在时返回 notFound，其它错误按存储错误处理
func notFoundOr(err error, notFound *Error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storeError(msg, err)
}

var (
	ErrNotAuthenticated  = newError(KindUnauthenticated, "User not authenticated")
	ErrProjectNotFound   = newError(KindNotFound, "Project not found")
	ErrMilestoneNotFound = newError(KindNotFound, "Milestone not found")
	ErrRewardNotFound    = newError(KindNotFound, "Reward not found")
	ErrCommentNotFound   = newError(KindNotFound, "Comment not found")
	ErrUserNotFound      = newError(KindNotFound, "User not found")
)

// KindOf 返回错误分类，非业务错误视为存储错误
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Message 返回可以展示给用户的错误信息
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Internal server error"
}
