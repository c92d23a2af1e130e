package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyToken = errors.New("authclient: response carried no access token")

// APIError is any non-2xx response from the auth backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authclient: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// parseErrorResponse builds an APIError from a failed response. The backend
// reports errors as {"message": ...}; bearer-token failures from the JWT
// layer use {"msg": ...}.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}

	msg := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			msg = errResp.Message
		case errResp.Msg != "":
			msg = errResp.Msg
		case errResp.Error != "":
			msg = errResp.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
