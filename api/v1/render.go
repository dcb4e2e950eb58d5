package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinayak200306/Veluno/pkg/e"
)

// httpStatusOf 业务码到HTTP状态码的映射
func httpStatusOf(code int) int {
	switch code {
	case e.SUCCESS:
		return http.StatusOK
	case e.INVALID_PARAMS:
		return http.StatusBadRequest
	case e.ERROR_AUTH, e.ERROR_AUTH_CHECK_TOKEN_FAIL, e.ERROR_AUTH_CHECK_TOKEN_TIMEOUT, e.ERROR_PASSWORD:
		return http.StatusUnauthorized
	case e.ERROR_ADMIN_DISABLED:
		return http.StatusForbidden
	case e.ERROR_ADMIN_NOT_EXISTS, e.ERROR_PRODUCT_NOT_EXISTS, e.ERROR_ORDER_NOT_EXISTS:
		return http.StatusNotFound
	case e.ERROR_ADMIN_EXISTS, e.ERROR_SKU_EXISTS, e.ERROR_ORDER_STATUS_CHANGED:
		return http.StatusConflict
	case e.ERROR_STOCK_NOT_ENOUGH, e.ERROR_PRODUCT_INACTIVE, e.ERROR_INVALID_SIZE, e.ERROR_SIGNATURE_MISMATCH:
		return http.StatusBadRequest
	case e.ERROR_PAYMENT_GATEWAY:
		return http.StatusBadGateway
	case e.ERROR_STORE_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// JSONData 成功响应
func JSONData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"code":    e.SUCCESS,
		"message": e.GetMsg(e.SUCCESS),
		"data":    data,
	})
}

// JSONError 错误响应：业务错误透出自身的码和文案，
// 其余错误统一为内部错误，不泄露细节
func JSONError(c *gin.Context, err error) {
	code := e.CodeOf(err)
	msg := e.GetMsg(code)
	var be *e.BizError
	if errors.As(err, &be) {
		msg = be.Msg
	}
	c.JSON(httpStatusOf(code), gin.H{
		"code":    code,
		"message": msg,
	})
}

// JSONCode 不带数据的错误响应
func JSONCode(c *gin.Context, code int) {
	c.JSON(httpStatusOf(code), gin.H{
		"code":    code,
		"message": e.GetMsg(code),
	})
}
