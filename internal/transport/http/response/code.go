package response

import "net/http"

// 各状态码对外的默认文案；500 不暴露内部错误
var StatusMsg = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Please authenticate.",
	http.StatusNotFound:              "Not Found",
	http.StatusRequestEntityTooLarge: "Request body too large",
	http.StatusTooManyRequests:       "Too many requests, please try again later.",
	http.StatusInternalServerError:   "Something went wrong!",
	http.StatusServiceUnavailable:    "Server busy",
	http.StatusGatewayTimeout:        "Request timed out",
}

func MsgOf(status int) string {
	if m, ok := StatusMsg[status]; ok {
		return m
	}
	return http.StatusText(status)
}
