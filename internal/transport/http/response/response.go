// Package response shapes JSON bodies. Success payloads are written bare;
// failures are {"error": msg}.
package response

import "github.com/gin-gonic/gin"

type ErrBody struct {
	Error string `json:"error"`
}

type MsgBody struct {
	Message string `json:"message"`
}

// Error 失败响应（msg 为空时使用状态码默认文案）
func Error(status int, msg string) ErrBody {
	if msg == "" {
		msg = MsgOf(status)
	}
	return ErrBody{Error: msg}
}

func Message(msg string) MsgBody { return MsgBody{Message: msg} }

// Abort writes the error body and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}
