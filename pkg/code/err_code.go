package code

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"marketplace/pkg/json"
)

// From parses the ErrorCode carried by a peer service response body.
func From(response *http.Response) ErrorCode {
	var result struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Result  interface{} `json:"result"`
	}
	if err := json.DecodeUseNumber(response.Body, &result); err != nil {
		return ErrParseContent.WithResult(err.Error())
	}
	return Froze(result.Code, result.Message).WithResult(result.Result)
}

// As finds the first ErrorCode in the chain of err.
func As(err error) (ErrorCode, bool) {
	var ec ErrorCode
	if errors.As(err, &ec) {
		return ec, true
	}
	return nil, false
}

// Froze defines an ErrorCode from "SSSCCCCCCC": a 3 digit http status followed by a 7 digit code.
func Froze(code, message string) ErrorCode {
	return (&errCode{}).froze(code, message, nil)
}

type errCode struct {
	serviceName    string
	httpStatusCode int
	code           string
	message        string
	result         interface{}
}

func (e *errCode) Error() string {
	if e.result == nil {
		return fmt.Sprintf("%3d%s: %s", e.httpStatusCode, e.code, e.message)
	}
	return fmt.Sprintf("%3d%s: %s: %v", e.httpStatusCode, e.code, e.message, e.result)
}

func (e *errCode) ServiceName() string {
	return e.serviceName
}

func (e *errCode) StatusCode() int {
	return e.httpStatusCode
}

func (e *errCode) Code() string {
	return e.code
}

func (e *errCode) Message() string {
	return e.message
}

func (e *errCode) Result() interface{} {
	return e.result
}

func (e *errCode) WithStatusCode(statusCode int) ErrorCode {
	ec := *e
	ec.httpStatusCode = statusCode
	return &ec
}

func (e *errCode) WithCode(code string) ErrorCode {
	ec := *e
	ec.code = code
	return &ec
}

func (e *errCode) WithMessage(msg string) ErrorCode {
	ec := *e
	ec.message = msg
	return &ec
}

func (e *errCode) WithResult(result interface{}) ErrorCode {
	ec := *e
	ec.result = result
	return &ec
}

// Is matches on the code only, so a copy carrying a result still matches its frozen origin.
func (e *errCode) Is(v error) bool {
	err, ok := v.(ErrorCode)
	if !ok {
		return false
	}
	return err.Code() == e.Code()
}

func (e *errCode) froze(code, message string, result interface{}) ErrorCode {
	e.httpStatusCode = http.StatusInternalServerError
	e.code = "0000000"
	e.message = message

	raw := strings.ReplaceAll(code, "-", "")
	if index := strings.Index(raw, "."); index > 0 {
		e.serviceName = raw[:index]
		if index >= len(raw)-1 {
			return e.WithResult(code + ";" + message)
		}
		raw = raw[index+1:]
	}
	if len(raw) <= 3 {
		return e.WithResult(code + ";" + message)
	}
	httpStatusCode, err := strconv.Atoi(raw[:3])
	if err != nil || httpStatusCode < 100 || httpStatusCode > 599 {
		return e.WithResult(code + ";" + message)
	}
	e.httpStatusCode = httpStatusCode
	e.code = raw[3:]
	e.result = result
	return e
}

type wire struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

func (e *errCode) MarshalJSON() ([]byte, error) {
	result := wire{
		Code:    fmt.Sprintf("%3d%s", e.StatusCode(), e.Code()),
		Message: e.Message(),
		Result:  e.Result(),
	}
	if e.ServiceName() != "" {
		result.Code = e.ServiceName() + "." + result.Code
	}
	return json.Marshal(result)
}

func (e *errCode) UnmarshalJSON(bytes []byte) error {
	var result wire
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	_ = e.froze(result.Code, result.Message, result.Result)
	return nil
}
