// Package apiclient issues JSON requests against a single base URL and
// reports every outcome through an Envelope.
//
// Requests never return a Go error. Transport failures, timeouts and non-2xx
// responses are folded into the envelope's Error and Code fields:
//
//	c, _ := apiclient.New(apiclient.Config{BaseURL: "https://admin.example.com/api"})
//	c.SetAuthToken(session.AccessToken)
//
//	env := apiclient.Get[[]Enterprise](ctx, c, "/enterprises")
//	if !env.Success {
//	    return env.Err()
//	}
//
// Each consumer owns its own Client. SetAuthToken and ClearAuthToken mutate
// only that client's default headers, and a request copies the headers when
// it starts, so a token change never reaches a request already in flight.
package apiclient
