package e

import (
	"errors"
	"fmt"
)

// 业务错误码定义
const (
	SUCCESS        = 0
	ERROR          = 1
	INVALID_PARAMS = 2

	ERROR_AUTH_CHECK_TOKEN_FAIL    = 10001
	ERROR_AUTH_CHECK_TOKEN_TIMEOUT = 10002
	ERROR_AUTH_TOKEN               = 10003
	ERROR_AUTH                     = 10004

	ERROR_ADMIN_NOT_EXISTS = 20001
	ERROR_PASSWORD         = 20002
	ERROR_ADMIN_DISABLED   = 20003
	ERROR_ADMIN_EXISTS     = 20004

	ERROR_PRODUCT_NOT_EXISTS = 30001
	ERROR_STOCK_NOT_ENOUGH   = 30002
	ERROR_PRODUCT_INACTIVE   = 30003
	ERROR_INVALID_SIZE       = 30004
	ERROR_SKU_EXISTS         = 30005

	ERROR_ORDER_NOT_EXISTS     = 40001
	ERROR_ORDER_STATUS_CHANGED = 40002

	ERROR_SIGNATURE_MISMATCH = 50001
	ERROR_PAYMENT_GATEWAY    = 50002

	ERROR_STORE_UNAVAILABLE = 60001
)

var MsgFlags = map[int]string{
	SUCCESS:        "success",
	ERROR:          "internal error",
	INVALID_PARAMS: "invalid request parameters",

	ERROR_AUTH_CHECK_TOKEN_FAIL:    "token validation failed",
	ERROR_AUTH_CHECK_TOKEN_TIMEOUT: "token expired",
	ERROR_AUTH_TOKEN:               "token generation failed",
	ERROR_AUTH:                     "authentication failed",

	ERROR_ADMIN_NOT_EXISTS: "admin account not found",
	ERROR_PASSWORD:         "invalid credentials",
	ERROR_ADMIN_DISABLED:   "admin account is deactivated",
	ERROR_ADMIN_EXISTS:     "admin account already exists",

	ERROR_PRODUCT_NOT_EXISTS: "product not found",
	ERROR_STOCK_NOT_ENOUGH:   "insufficient stock",
	ERROR_PRODUCT_INACTIVE:   "product is not available",
	ERROR_INVALID_SIZE:       "invalid size for product",
	ERROR_SKU_EXISTS:         "product SKU already exists",

	ERROR_ORDER_NOT_EXISTS:     "order not found",
	ERROR_ORDER_STATUS_CHANGED: "order state does not allow this transition",

	ERROR_SIGNATURE_MISMATCH: "payment signature verification failed",
	ERROR_PAYMENT_GATEWAY:    "payment gateway request failed",

	ERROR_STORE_UNAVAILABLE: "data store temporarily unavailable, retry later",
}

func GetMsg(code int) string {
	msg, ok := MsgFlags[code]
	if ok {
		return msg
	}
	return MsgFlags[ERROR]
}

// BizError 携带稳定错误码的业务错误，贯穿 service -> handler
type BizError struct {
	Code int
	Msg  string
}

func (e *BizError) Error() string {
	return e.Msg
}

// New 根据错误码创建业务错误，消息取默认文案
func New(code int) *BizError {
	return &BizError{Code: code, Msg: GetMsg(code)}
}

// Newf 根据错误码创建业务错误并自定义消息
func Newf(code int, format string, args ...any) *BizError {
	return &BizError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf 提取业务错误码；非业务错误一律归为 ERROR
func CodeOf(err error) int {
	if err == nil {
		return SUCCESS
	}
	var be *BizError
	if errors.As(err, &be) {
		return be.Code
	}
	return ERROR
}

// IsCode 判断错误是否携带指定业务码
func IsCode(err error, code int) bool {
	return CodeOf(err) == code
}
