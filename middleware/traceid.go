package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader carries the request trace ID. Clients may supply their
// own; otherwise one is minted here.
const TraceIDHeader = "X-Trace-ID"

const traceKey = "trace_id"

// TraceID tags every request with a trace ID and echoes it in the
// response header. The audit trail and the request log join on it.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(traceKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace ID, or "" outside TraceID.
func GetTraceID(c *gin.Context) string {
	id, _ := c.Value(traceKey).(string)
	return id
}
