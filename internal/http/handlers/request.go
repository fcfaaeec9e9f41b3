package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/remission-backend/internal/http/response"
	"github.com/yungbote/remission-backend/internal/platform/ctxutil"
)

// SubjectRef is a subject id sent either as a JSON string or a bare number.
type SubjectRef string

func (s *SubjectRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = SubjectRef(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("subject id must be a string or number")
	}
	*s = SubjectRef(n.String())
	return nil
}

// subjectFields is embedded in request bodies; user_id is the older name.
type subjectFields struct {
	SubjectID SubjectRef `json:"subject_id"`
	UserID    SubjectRef `json:"user_id"`
}

func (f subjectFields) subject() string {
	if f.SubjectID != "" {
		return string(f.SubjectID)
	}
	return string(f.UserID)
}

// resolveSubject picks the subject a request acts on. The token subject
// fills in an absent one and must match a present one. It writes the error
// response and returns false when the request cannot proceed.
func resolveSubject(c *gin.Context, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	tokenSubject := ctxutil.SubjectID(c.Request.Context())
	if requested == "" {
		requested = tokenSubject
	}
	if requested == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("user_id is required"))
		return "", false
	}
	if tokenSubject != "" && tokenSubject != requested {
		response.RespondError(c, http.StatusForbidden, "forbidden", errors.New("token does not belong to this subject"))
		return "", false
	}
	return requested, true
}

// bindJSON binds an optional or required JSON body. It writes a 400 on
// malformed input.
func bindJSON(c *gin.Context, dst any, required bool) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		if !required {
			return true
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("request body is required"))
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) && !required {
			return true
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// queryLimit reads an optional positive ?limit=. Zero means the service default.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("limit must be a positive integer"))
		return 0, false
	}
	return n, true
}
