package utils

import (
	"net"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// GetRealClientIP prefers X-Real-IP, then the first X-Forwarded-For hop, and
// falls back to gin's ClientIP. Header values that are not IPs are ignored.
func GetRealClientIP(c *gin.Context) string {
	for _, header := range []string{"X-Real-IP", "X-Forwarded-For"} {
		first, _, _ := strings.Cut(c.GetHeader(header), ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return c.ClientIP()
}

// Pagination reads limit and offset query parameters with defaults and a cap
func Pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// QueryBool parses an optional boolean query parameter; nil when absent or invalid
func QueryBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
