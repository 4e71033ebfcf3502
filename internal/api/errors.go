package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrInvalidMFACode marks a 401 returned for an MFA code submission, so the
// login form can show "invalid code" instead of "bad credentials".
var ErrInvalidMFACode = errors.New("api: invalid mfa code")

// APIError is the single error envelope for every backend failure. All call
// sites branch on StatusCode; no nested response shapes.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api: unexpected status %d", e.StatusCode)
}

// AsAPIError unwraps err into an *APIError when one is present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == status
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		// Non-JSON error bodies still surface something readable.
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
			if len(apiErr.Message) > 200 {
				apiErr.Message = apiErr.Message[:200]
			}
		}
	}
	return apiErr
}
