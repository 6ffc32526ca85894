package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Pagination is the optional paging block the backend attaches to list responses.
type Pagination struct {
	Page       int  `json:"page" yaml:"page"`
	Limit      int  `json:"limit" yaml:"limit"`
	Total      int  `json:"total" yaml:"total"`
	TotalPages int  `json:"totalPages" yaml:"totalPages"`
	HasNext    bool `json:"hasNext" yaml:"hasNext"`
	HasPrev    bool `json:"hasPrev" yaml:"hasPrev"`
}

// Response is the uniform result of a successful call, whatever shape the body
// had on the wire.
type Response struct {
	// Status is the HTTP status of the response that produced this value.
	Status int
	// Data is the payload: the "data" member of an enveloped body, or the whole body.
	Data json.RawMessage
	// Pagination is set when the body carried a pagination block.
	Pagination *Pagination
	// Exp is the server-dictated freshness deadline, when present and parsable.
	Exp *time.Time
	// Cached is true when the response was served from the cache.
	Cached bool
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return errors.New("response has no body")
	}
	return json.Unmarshal(r.Data, v)
}

// clone returns a copy that shares no memory with r.
func (r *Response) clone() *Response {
	c := *r
	if r.Data != nil {
		c.Data = bytes.Clone(r.Data)
	}
	if r.Pagination != nil {
		p := *r.Pagination
		c.Pagination = &p
	}
	if r.Exp != nil {
		exp := *r.Exp
		c.Exp = &exp
	}
	return &c
}

// envelope is the optional wrapper around success payloads.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
	Exp        json.RawMessage `json:"exp"`
}

// parseResponse turns a success body into a Response. A body that is not JSON, or
// whose pagination block is malformed, yields a RequestError.
func parseResponse(status int, body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	resp := &Response{Status: status}
	if len(trimmed) == 0 {
		return resp, nil
	}
	invalid := &RequestError{Status: status, Message: InvalidResponseMessage, Body: body}
	if !json.Valid(trimmed) {
		return nil, invalid
	}
	resp.Data = json.RawMessage(trimmed)
	if trimmed[0] != '{' {
		return resp, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, invalid
	}
	if len(env.Data) > 0 {
		resp.Data = env.Data
	}
	if isPresent(env.Pagination) {
		var p Pagination
		if err := json.Unmarshal(env.Pagination, &p); err != nil {
			return nil, invalid
		}
		resp.Pagination = &p
	}
	resp.Exp = parseExp(env.Exp)
	return resp, nil
}

// parseExp reads an ISO-8601 instant. Anything else reads as absent.
func parseExp(raw json.RawMessage) *time.Time {
	if !isPresent(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

// errorMessage picks the human-readable reason out of an error body, checking
// message, then error, then detail.
func errorMessage(status int, body []byte) string {
	var fields struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, raw := range []json.RawMessage{fields.Message, fields.Error, fields.Detail} {
			var s string
			if isPresent(raw) && json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}
	return fallbackMessage(status)
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
