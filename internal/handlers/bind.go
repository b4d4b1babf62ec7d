package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the body into out. On failure it writes a
// 400 with message and per-field details. The body is read through gin's
// body cache so limiter middleware may have looked at it first.
func BindJSON(c *gin.Context, out interface{}, message string) bool {
	if err := c.ShouldBindBodyWith(out, binding.JSON); err != nil {
		respondBadRequest(c, message, parseBindError(err, out))
		return false
	}
	return true
}

func parseBindError(err error, out interface{}) gin.H {
	rootType := reflect.TypeOf(out)
	for rootType != nil && rootType.Kind() == reflect.Pointer {
		rootType = rootType.Elem()
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, FieldError{
				Field:   jsonFieldName(rootType, fe.StructField()),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		field := jsonFieldName(rootType, typeError.Field)
		return gin.H{
			"json": "invalid_json_type",
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeError.Type.String()),
			}},
		}
	}

	return gin.H{"json": "invalid_body"}
}

func jsonFieldName(t reflect.Type, name string) string {
	if t == nil || t.Kind() != reflect.Struct {
		return name
	}
	sf, ok := t.FieldByName(name)
	if !ok {
		return name
	}
	tag := strings.Split(sf.Tag.Get("json"), ",")[0]
	if tag == "" || tag == "-" {
		return name
	}
	return tag
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "min":
		return fmt.Sprintf("must be at least %s characters", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	case "email":
		return "must be a valid email"
	default:
		return "is invalid"
	}
}
