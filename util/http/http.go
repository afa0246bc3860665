package http

import (
	"context"
	"time"
)

type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

// RequestParam 一次请求的参数
//
// Body 支持 io.Reader、[]byte，其他类型按 JSON 序列化。
// Response 为 *[]byte 时保存原始响应体，否则按 JSON 反序列化；为 nil 时丢弃响应体。
type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	Response   interface{}

	Timeout time.Duration
	// MaxResponseBytes 响应体大小上限，0 表示不限制
	MaxResponseBytes int64
}
