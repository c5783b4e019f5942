package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrorResponder maps service errors to status codes and bodies in one place.
type ErrorResponder struct {
	log        *logrus.Logger
	production bool
}

func NewErrorResponder(log *logrus.Logger, production bool) *ErrorResponder {
	return &ErrorResponder{log: log, production: production}
}

func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		appErr = services.Internal(err)
	}
	c.Error(err)

	switch appErr.Kind {
	case services.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message, "details": appErr.Details})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": appErr.Message})
	case services.KindUpstreamUnavailable:
		upstream := appErr.Upstream
		if upstream == "" {
			upstream = "external API"
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   appErr.Message,
			"details": "Could not fetch data from " + upstream,
		})
	default:
		r.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		body := gin.H{"error": "Internal server error"}
		if !r.production && appErr.Err != nil {
			body["details"] = appErr.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

// bindingDetails converts a JSON binding failure into field-level problems keyed by JSON name.
func bindingDetails(err error, target any) map[string]string {
	details := map[string]string{}

	var validationErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			details[jsonFieldName(target, fe.StructField())] = describeRule(fe)
		}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		details[field] = fmt.Sprintf("must be a %s", typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		details["body"] = "must be valid JSON"
	default:
		details["body"] = err.Error()
	}

	return details
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func jsonFieldName(target any, structField string) string {
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(structField); ok {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(structField)
}
