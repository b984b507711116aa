package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"roombooking-backend/internal/model"
)

var platforms = map[string]bool{"android": true, "ios": true, "web": true}

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return model.Role(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			return platforms[fl.Field().String()]
		})
		_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
			return model.ReservationStatus(fl.Field().String()).Valid()
		})
	})
}

// bindJSON decodes the body into req and writes a 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		validationError(c, describeBindError(err))
		return false
	}
	return true
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "malformed request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "role":
			msgs = append(msgs, field+" must be one of ADMIN, MANAGER, USER")
		case "platform":
			msgs = append(msgs, field+" must be one of android, ios, web")
		default:
			if fe.Param() != "" {
				msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s fails %s", field, fe.Tag()))
			}
		}
	}
	return strings.Join(msgs, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
