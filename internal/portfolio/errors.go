package portfolio

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BusinessError is a balance response whose rt_cd is not "0".
// Message carries msg1 exactly as the broker sent it.
type BusinessError struct {
	Code    string
	MsgCode string
	Message string
	Raw     json.RawMessage
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("balance inquiry rejected (rt_cd=%s, msg_cd=%s): %s", e.Code, e.MsgCode, e.Message)
}

// ParseError is a missing or non-numeric field in the balance response.
// Index is -1 for the account summary block.
type ParseError struct {
	Index  int
	Ticker string
	Field  string
	Value  string
}

func (e *ParseError) Error() string {
	where := "summary"
	if e.Index >= 0 {
		where = fmt.Sprintf("position %d", e.Index)
		if e.Ticker != "" {
			where += " (" + e.Ticker + ")"
		}
	}
	if e.Value == "" {
		return fmt.Sprintf("%s: field %s is missing", where, e.Field)
	}
	return fmt.Sprintf("%s: field %s is not numeric: %q", where, e.Field, e.Value)
}

// ParseErrors collects every bad field of one response
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	msgs := make([]string, len(e))
	for i, pe := range e {
		msgs[i] = pe.Error()
	}
	return fmt.Sprintf("%d malformed field(s): %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes each ParseError to errors.As
func (e ParseErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, pe := range e {
		errs[i] = pe
	}
	return errs
}
