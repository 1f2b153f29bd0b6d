package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/middleware"
)

// IdempotencyKeyHeader carries the client-chosen key for mutating requests
const IdempotencyKeyHeader = "Idempotency-Key"

// RetryAfterSeconds is advertised on 503 responses
const RetryAfterSeconds = 1

const maxIdempotencyKeyLength = 128

var registerTagNames sync.Once

// RegisterValidatorTagNames makes validation errors report json field names
func RegisterValidatorTagNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// StatusForKind maps a result error kind onto an HTTP status
func StatusForKind(kind errs.ErrorKind) int {
	switch kind {
	case errs.KindNone:
		return http.StatusOK
	case errs.KindAccountNotFound, errs.KindPayoutNotFound:
		return http.StatusNotFound
	case errs.KindIdempotencyKeyMismatch, errs.KindInvalidPayoutState, errs.KindDuplicateAccount:
		return http.StatusConflict
	case errs.KindInvalidRequest:
		return http.StatusBadRequest
	case errs.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case errs.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// writeResult sends a TransferResult. Replays always answer 200.
func writeResult(c *gin.Context, result *entity.TransferResult, successStatus int) {
	if result.Success {
		if result.Replayed {
			successStatus = http.StatusOK
		}
		c.JSON(successStatus, result)
		return
	}

	c.JSON(StatusForKind(result.Error), result)
}

// writeError sends err as an ErrorResponse. Anything that is not a business
// rule failure is reported as the store being unavailable so clients retry.
func writeError(c *gin.Context, logger coreport.Logger, message string, err error) {
	if !errs.IsBusinessRule(err) && !errs.IsRetryable(err) {
		err = errs.NewStoreError(c.FullPath(), err)
	}

	kind := errs.Kind(err)
	status := StatusForKind(kind)

	fields := errs.LogFields(err)
	fields["path"] = c.FullPath()
	fields["request_id"] = c.GetString(middleware.RequestIDKey)

	if errs.IsBusinessRule(err) {
		logger.Info(message, fields)
	} else {
		logger.Error(message, fields)
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}

	_ = c.Error(err)
	c.JSON(status, dto.ErrorResponse{
		Code:    errs.ErrorCode(err),
		Kind:    string(kind),
		Message: errs.Message(err),
	})
}

// writeBindError translates binding failures into field messages
func writeBindError(c *gin.Context, err error) {
	response := dto.ErrorResponse{
		Code:    errs.CodeInvalidRequest,
		Kind:    string(errs.KindInvalidRequest),
		Message: "Invalid request body",
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		response.Fields = make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			response.Fields[fe.Field()] = fieldMessage(fe)
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, response)
}

func writeInvalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    errs.CodeInvalidRequest,
		Kind:    string(errs.KindInvalidRequest),
		Message: message,
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is missing", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "alpha":
		return "must contain letters only"
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

func accountIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("accountId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    errs.ErrorCode(errs.ErrInvalidAccountID),
			Kind:    string(errs.KindInvalidRequest),
			Message: "Invalid account ID format",
		})
		return 0, false
	}
	return id, true
}

func idempotencyKey(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		writeInvalid(c, fmt.Sprintf("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLength))
		return "", false
	}
	return key, true
}
