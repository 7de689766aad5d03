package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"

	// RequestIDKey はアクセスログなどがリクエストIDを参照するためのコンテキストキーです。
	RequestIDKey = "request_id"
)

// RequestID はリクエストIDを採番してレスポンスヘッダーに付与するミドルウェアを返します。
// クライアントが既にIDを送っている場合はそれを引き継ぎます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set(RequestIDKey, id)
		c.Next()
	}
}
