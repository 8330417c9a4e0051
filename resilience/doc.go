// Package resilience retries failed platform calls with exponential backoff.
//
// The request client never retries on its own. Services that want retries
// wrap a call with RetryEnvelope, which repeats only failures whose envelope
// reports a retryable code (timeouts, rate limits, 5xx from upstream):
//
//	env := resilience.RetryEnvelope(ctx, cfg, func(ctx context.Context) apiclient.Envelope[[]Enterprise] {
//	    return apiclient.Get[[]Enterprise](ctx, client, "/enterprises")
//	})
package resilience
