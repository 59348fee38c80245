package middleware

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/valyala/fastjson"
)

const maxBodyBytes = 64 << 10

// EnforceJSON rejects bodies that are empty, too large or not valid JSON
// before any handler tries to bind them.
func EnforceJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if contentType := c.GetHeader("Content-Type"); contentType != "" {
			mt, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed Content-Type header"})
				return
			}
			if mt != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "Content-Type header must be application/json"})
				return
			}
		}

		if c.Request.Body == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no body provided"})
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}
		if len(body) > maxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no body provided"})
			return
		}
		if err := fastjson.ValidateBytes(body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed JSON"})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
