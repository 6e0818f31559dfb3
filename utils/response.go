package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Thin response envelopes so every handler answers the same shape:
// {"message": ..., "data": ...} on success, {"message": ..., "error": ...} on
// failure.

func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"message": message, "data": data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"message": message, "data": data})
}

func BadRequest(c *gin.Context, message string, err error) {
	fail(c, http.StatusBadRequest, message, err)
}

func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, message, nil)
}

func ServerError(c *gin.Context, message string, err error) {
	fail(c, http.StatusInternalServerError, message, err)
}

func fail(c *gin.Context, status int, message string, err error) {
	resp := gin.H{"message": message}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(status, resp)
}
