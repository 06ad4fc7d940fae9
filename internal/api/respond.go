package api

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storyhub/internal/apperr"
	"storyhub/internal/auth"
	"storyhub/internal/logging"
)

var (
	errBadJSON        = apperr.New(apperr.Validation, "invalid JSON body")
	errAvatarRequired = apperr.New(apperr.Validation, "avatar is required")
)

var validationOnce sync.Once

// registerValidation makes validator report JSON field names so messages
// read "genre is required" rather than "Genre is required".
func registerValidation() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// fail writes err as {"error": msg} with the status of its kind. Internal
// errors are logged with their stack and hidden from the client.
func (s *Server) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		s.log.Errorw("request failed",
			"request_id", c.GetString(logging.CtxRequestIDKey),
			"route", c.FullPath(),
			"error", fmt.Sprintf("%+v", err),
		)
	}
	c.AbortWithStatusJSON(kind.Status(), gin.H{"error": apperr.Message(err)})
}

// bind decodes the JSON body into dst and runs its binding rules.
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Wrap(apperr.Validation, validationMessage(verrs[0]), err)
	}
	if errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.Validation, "request body is required", err)
	}
	return apperr.Wrap(errBadJSON.Kind, errBadJSON.Msg, err)
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "gt":
		return field + " must be greater than " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// pathID parses a positive integer route parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.Validation, "invalid "+name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.New(apperr.Validation, "invalid "+name)
	}
	return v, nil
}

// caller returns the claims attached by RequireUser or OptionalUser.
func caller(c *gin.Context) *auth.Claims {
	claims, _ := auth.ClaimsFrom(c)
	return claims
}
