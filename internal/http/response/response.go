package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/remission-backend/internal/observability"
	"github.com/yungbote/remission-backend/internal/platform/apierr"
	"github.com/yungbote/remission-backend/internal/risk"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  []risk.FieldError `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := APIError{Message: msg, Code: code}
	var verr *risk.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	observability.Current().IncAPIError(code)
	c.JSON(status, ErrorEnvelope{Error: body})
}

// RespondAPIError maps a service error onto the envelope. Errors that carry
// no *apierr.Error become an opaque 500.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
