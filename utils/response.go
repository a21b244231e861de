package utils

import "github.com/gin-gonic/gin"

// All API responses share one envelope: {data, message, total?}. The message
// field carries a translation key that clients look up locally, never literal
// user-facing text.

func Respond(c *gin.Context, status int, data interface{}, messageKey string) {
	c.JSON(status, gin.H{"data": data, "message": messageKey})
}

func RespondList(c *gin.Context, status int, data interface{}, total int64, messageKey string) {
	c.JSON(status, gin.H{"data": data, "message": messageKey, "total": total})
}

func Fail(c *gin.Context, status int, messageKey string) {
	c.JSON(status, gin.H{"message": messageKey})
}
