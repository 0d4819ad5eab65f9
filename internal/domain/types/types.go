// Package types contains common types used across the application
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionType selects which upstream operation a query performs.
type ActionType string

// Supported action types.
const (
	ActionSEOKeywords ActionType = "seo_keywords"
	ActionSeasonality ActionType = "seasonality"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Fixed envelope messages.
const (
	MsgKeywordRequired  = "Parameter 'keyword' is required."
	MsgParamsRequired   = "Parameter 'params' must be an object."
	MsgAPIRequestFailed = "API request failed"
	DetailsNoResponse   = "No response"
)

// ActionNone is how an absent or null action_type is rendered.
const ActionNone = "None"

// Request is the inbound query body. Decoding is lenient: any JSON value
// is accepted for action_type, and a params value that is not an object
// decodes to nil.
type Request struct {
	ActionType ActionType `json:"action_type"`
	Params     *Params    `json:"params"`

	// actionGiven marks an explicit action_type string, so "" is told
	// apart from an absent or null value.
	actionGiven bool
}

// Params carries the per-action arguments. NumKeywords is forwarded to
// the upstream API as given; nil means "use the default".
type Params struct {
	Keyword     string          `json:"keyword"`
	NumKeywords json.RawMessage `json:"num_keywords,omitempty"`
}

// Action renders action_type for messages: the string itself, the JSON
// text of other values, or None when absent or null.
func (r Request) Action() string {
	if r.ActionType == "" && !r.actionGiven {
		return ActionNone
	}
	return string(r.ActionType)
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		ActionType json.RawMessage `json:"action_type"`
		Params     json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Request{}
	action, given, err := actionText(raw.ActionType)
	if err != nil {
		return err
	}
	r.ActionType, r.actionGiven = ActionType(action), given

	if isObject(raw.Params) {
		var p Params
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return err
		}
		r.Params = &p
	}
	return nil
}

func (p *Params) UnmarshalJSON(data []byte) error {
	var raw struct {
		Keyword     json.RawMessage `json:"keyword"`
		NumKeywords json.RawMessage `json:"num_keywords"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	keyword, err := keywordText(raw.Keyword)
	if err != nil {
		return err
	}
	p.Keyword = keyword
	p.NumKeywords = nil
	if !isNull(raw.NumKeywords) {
		p.NumKeywords = raw.NumKeywords
	}
	return nil
}

// actionText returns the action as text and whether a value was given.
// Booleans print as True/False; other non-strings keep their JSON text.
func actionText(raw json.RawMessage) (string, bool, error) {
	if isNull(raw) {
		return "", false, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false, err
	}
	switch v := v.(type) {
	case string:
		return v, true, nil
	case bool:
		if v {
			return "True", true, nil
		}
		return "False", true, nil
	default:
		text, err := compact(raw)
		return text, true, err
	}
}

// keywordText returns the keyword as text. Falsy values (null, false, 0,
// "", [] and {}) are empty; other non-strings keep their JSON text.
func keywordText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		if !v {
			return "", nil
		}
	case float64:
		if v == 0 {
			return "", nil
		}
	case []any:
		if len(v) == 0 {
			return "", nil
		}
	case map[string]any:
		if len(v) == 0 {
			return "", nil
		}
	}
	return compact(raw)
}

func compact(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

// Envelope is the only response shape the proxy produces.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// KeywordStat is one related query returned by seo_keywords. Values are
// passed through from the upstream response; missing ones encode as null.
type KeywordStat struct {
	Keyword  json.RawMessage `json:"keyword"`
	Searches json.RawMessage `json:"searches"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// Failure builds an error envelope with a message.
func Failure(msg string) Envelope {
	return Envelope{Status: StatusError, Message: msg}
}

// UpstreamFailure builds the envelope for a failed upstream call. An empty
// details string means no response body was available.
func UpstreamFailure(details string) Envelope {
	if details == "" {
		details = DetailsNoResponse
	}
	return Envelope{Status: StatusError, Message: MsgAPIRequestFailed, Details: details}
}

// TokenMissing builds the envelope returned when the credential variable is unset.
func TokenMissing(envName string) Envelope {
	return Failure(fmt.Sprintf("%s is not configured on the server.", envName))
}

// UnknownAction builds the envelope for an unsupported action type.
// action is the rendered value, see Request.Action.
func UnknownAction(action string) Envelope {
	return Failure(fmt.Sprintf("Unknown action_type: %s", action))
}

// OK reports whether the envelope carries a success status.
func (e Envelope) OK() bool {
	return e.Status == StatusSuccess
}
