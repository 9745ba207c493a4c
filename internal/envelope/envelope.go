// Package envelope defines the uniform response wrapper used by every /v1
// endpoint. External consumers parse this shape for both successes and
// errors, so it must not vary per handler.
package envelope

import "time"

const (
	Version     = "1"
	Attribution = "Mythos API · mythos-labs"
	License     = "CC BY-SA 4.0"
)

type Meta struct {
	Version     string `json:"version"`
	Endpoint    string `json:"endpoint"`
	Timestamp   string `json:"timestamp"`
	Attribution string `json:"attribution"`
	License     string `json:"license"`
}

// Response carries exactly one of Data or Error, never both.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
}

func newMeta(endpoint string) Meta {
	return Meta{
		Version:     Version,
		Endpoint:    endpoint,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Attribution: Attribution,
		License:     License,
	}
}

func OK(endpoint string, data any) Response {
	return Response{Data: data, Meta: newMeta(endpoint)}
}

func Err(endpoint, message string) Response {
	return Response{Error: message, Meta: newMeta(endpoint)}
}
