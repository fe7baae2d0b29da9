package handler

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"rollcall/internal/apperr"
)

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// fail writes err as an error envelope. Unclassified errors are logged and reported as internal.
func fail(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(code), gin.H{
		"success": false,
		"error":   apperr.MessageOf(err),
		"code":    code,
	})
}

// bindFailed reports a request that could not be decoded or validated.
func bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fail(c, apperr.Validation(describe(verrs[0])))
		return
	}
	fail(c, apperr.Validation("invalid request body"))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "datekey":
		return fmt.Sprintf("%s must be a calendar day formatted as YYYY-MM-DD", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
