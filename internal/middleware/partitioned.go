// Package middleware は全ルート共通のHTTPミドルウェアを提供します。
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Partitioned は Set-Cookie ヘッダーを書き換えるミドルウェアを返します。
// SameSite=None かつ Secure のCookieに、クロスサイト利用時に一部ブラウザが
// 要求する Partitioned 属性を付与します。その他のCookieは変更しません。
func Partitioned() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &partitionedWriter{ResponseWriter: c.Writer}
		c.Next()
	}
}

type partitionedWriter struct {
	gin.ResponseWriter
	rewritten bool
}

func (w *partitionedWriter) WriteHeader(code int) {
	w.rewrite()
	w.ResponseWriter.WriteHeader(code)
}

func (w *partitionedWriter) WriteHeaderNow() {
	w.rewrite()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *partitionedWriter) Write(data []byte) (int, error) {
	w.rewrite()
	return w.ResponseWriter.Write(data)
}

func (w *partitionedWriter) WriteString(s string) (int, error) {
	w.rewrite()
	return w.ResponseWriter.WriteString(s)
}

// rewrite はヘッダー送出前に一度だけ Set-Cookie を書き換えます。
func (w *partitionedWriter) rewrite() {
	if w.rewritten {
		return
	}
	w.rewritten = true

	header := w.Header()
	cookies := header["Set-Cookie"]
	if len(cookies) == 0 {
		return
	}

	modified := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		modified = append(modified, AddPartitionedAttribute(cookie))
	}
	header["Set-Cookie"] = modified
}

// AddPartitionedAttribute は単一の Set-Cookie 値に対する書き換え規則です。
// 属性の判定は部分文字列の一致のみで行い、Cookieの構文解析はしません。
func AddPartitionedAttribute(cookie string) string {
	if !strings.Contains(cookie, "SameSite=None") || !strings.Contains(cookie, "Secure") {
		return cookie
	}
	if strings.Contains(cookie, "Partitioned") {
		return cookie
	}
	return cookie + "; Partitioned"
}
