package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/azvaska/flight-gorilla-sub000/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var kindStatus = map[models.ErrorKind]int{
	models.KindValidation: http.StatusBadRequest,
	models.KindForbidden:  http.StatusForbidden,
	models.KindNotFound:   http.StatusNotFound,
	models.KindConflict:   http.StatusConflict,
	models.KindExpired:    http.StatusGone,
	models.KindInternal:   http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status code
func StatusFor(kind models.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"status":"error","code","message","field"}.
// Server errors are logged and their cause is never sent to the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := models.KindOf(err)
	body := gin.H{
		"status": "error",
		"code":   kind,
	}

	var de *models.DomainError
	if errors.As(err, &de) {
		body["message"] = de.Message
		if de.Field != "" {
			body["field"] = de.Field
		}
	}

	if kind == models.KindInternal {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		body["message"] = "An unexpected error occurred. Please try again later."
	}

	c.AbortWithStatusJSON(StatusFor(kind), body)
}

// bindingError turns a gin binding failure into a validation error naming
// the first offending field
func bindingError(err error) error {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return models.NewValidationError(fe.Field(), fieldMessage(fe))
	}
	return models.NewValidationError("", "Invalid request format")
}

func fieldMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "datetime":
		return fe.Field() + " must match " + fe.Param()
	case validator.TagClock:
		return fe.Field() + " must be a time of day in HH:MM"
	case validator.TagLocationType:
		return fe.Field() + " must be airport or city"
	case validator.TagSeatNumber:
		return fe.Field() + " must look like 12A"
	case "min", "gt":
		return fe.Field() + " is too small"
	case "max":
		return fe.Field() + " is too large"
	}
	return fe.Field() + " is invalid"
}

// parseUUIDParam reads a path parameter that must be a UUID
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, models.NewValidationError(name, name+" must be a valid UUID")
	}
	return id, nil
}

var registerOnce struct {
	sync.Once
	err error
}

// RegisterValidators installs the custom binding tags on gin's validator
// and reports fields by their form or json name
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerOnce.err = registerValidators()
	})
	return registerOnce.err
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*playground.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	return validator.Register(v)
}
