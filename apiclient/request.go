package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// Get performs a GET request and decodes the payload into T.
func Get[T any](ctx context.Context, r Requester, endpoint string, opts ...RequestOption) Envelope[T] {
	return Send[T](ctx, r, http.MethodGet, endpoint, nil, opts...)
}

// Post performs a POST request with a JSON body.
func Post[T any](ctx context.Context, r Requester, endpoint string, body any, opts ...RequestOption) Envelope[T] {
	return Send[T](ctx, r, http.MethodPost, endpoint, body, opts...)
}

// Put performs a PUT request with a JSON body.
func Put[T any](ctx context.Context, r Requester, endpoint string, body any, opts ...RequestOption) Envelope[T] {
	return Send[T](ctx, r, http.MethodPut, endpoint, body, opts...)
}

// Patch performs a PATCH request with a JSON body.
func Patch[T any](ctx context.Context, r Requester, endpoint string, body any, opts ...RequestOption) Envelope[T] {
	return Send[T](ctx, r, http.MethodPatch, endpoint, body, opts...)
}

// Delete performs a DELETE request.
func Delete[T any](ctx context.Context, r Requester, endpoint string, opts ...RequestOption) Envelope[T] {
	return Send[T](ctx, r, http.MethodDelete, endpoint, nil, opts...)
}

// Send issues a request with an arbitrary method. A body passed with GET is
// dropped.
func Send[T any](ctx context.Context, r Requester, method, endpoint string, body any, opts ...RequestOption) Envelope[T] {
	req := Request{Method: method, Endpoint: endpoint, Body: body}
	for _, opt := range opts {
		opt(&req.Config)
	}
	return Decode[T](r.Do(ctx, req))
}

// Decode converts a raw envelope into a typed one. An empty 2xx body decodes
// to the zero value of T. A payload that does not fit T is a 500 failure.
func Decode[T any](raw Envelope[json.RawMessage]) Envelope[T] {
	if !raw.Success {
		return Envelope[T]{Error: raw.Error, Code: raw.Code}
	}
	var data T
	if payload := raw.Value(); len(payload) > 0 {
		if err := json.Unmarshal(payload, &data); err != nil {
			return Fail[T](CodeFailure, "decode response: "+err.Error())
		}
	}
	return OK(data)
}
