package middleware

import (
	"linkvault/internal/apperr"

	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{
		"error": apperr.PublicMessage(err),
	})
}
