package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/middleware"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// errorBody maps err to its status and JSON body. Server side failures are
// masked.
func errorBody(c *gin.Context, err error) (int, middleware.ErrorBody) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	body := middleware.ErrorBody{
		Code:      string(code),
		Message:   dashboard.UserMessage(err),
		RequestID: middleware.GetRequestID(c),
	}
	if status >= http.StatusInternalServerError {
		body.Message = errors.DefaultMessageForCode(code)
	}
	return status, body
}

// writeAppError writes err as a JSON error response.
func writeAppError(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	c.AbortWithStatusJSON(status, body)
}

// parseIndices reads the selected rows from repeated or comma separated
// "index" query values.
func parseIndices(values []string) ([]int, error) {
	var out []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			i, err := strconv.Atoi(part)
			if err != nil {
				return nil, errors.Validation("Selected index " + strconv.Quote(part) + " is not a number.")
			}
			out = append(out, i)
		}
	}
	return out, nil
}

// formatIndices is the inverse of parseIndices.
func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for k, i := range indices {
		parts[k] = strconv.Itoa(i)
	}
	return strings.Join(parts, ",")
}

// readRunInput binds the sidebar fields and the uploaded file of a
// multipart request. Missing fields keep their defaults; an unchecked
// Reverse box is absent from the form and means false.
func readRunInput(c *gin.Context, defaults dashboard.Form) (*dashboard.RunInput, error) {
	form := defaults
	form.Reverse = false
	if err := c.ShouldBind(&form); err != nil {
		return &dashboard.RunInput{Form: form}, errors.Validation("Invalid form input.").WithDetail(err.Error())
	}
	in := &dashboard.RunInput{Form: form}

	fh, err := c.FormFile("file")
	switch {
	case err == http.ErrMissingFile:
		return in, nil
	case err != nil:
		return in, requestBodyError(err)
	}
	f, err := fh.Open()
	if err != nil {
		return in, errors.Wrap(err, errors.ErrCodeBadRequest, "opening upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return in, requestBodyError(err)
	}
	in.FileName = fh.Filename
	in.File = data
	return in, nil
}

func requestBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New(errors.ErrCodePayloadTooLarge,
			"The file is too large ("+strconv.FormatInt(maxErr.Limit, 10)+" bytes at most).")
	}
	return errors.Wrap(err, errors.ErrCodeBadRequest, "reading upload")
}
