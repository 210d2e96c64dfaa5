package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/krishignan/krishignan/internal/pkg/goerror"
)

// maxBodyBytes bounds JSON request bodies accepted by DecodeBody.
const maxBodyBytes = 64 * 1024

// Request is what a Handler receives; it adds strict JSON decoding to http.Request.
type Request struct {
	*http.Request
}

// DecodeBody decodes a single JSON object from the body into dst.
//
// Unknown fields, trailing data and bodies above 64KB are rejected as invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}
