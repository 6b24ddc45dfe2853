package ports

import (
	"context"
	"net/http"
)

// HTTPDoer sends a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one outbound call to the auth API
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte // nil sends no body
}

// API issues requests and classifies their responses.
// Failures are *core.HTTPError, *core.MalformedResponseError or *core.NetworkError.
type API interface {
	// Send expects a JSON body on success and decodes it into out
	Send(ctx context.Context, req Request, out any) error
	// SendRaw returns the body text on success
	SendRaw(ctx context.Context, req Request) (string, error)
}

// Display receives the text outcome of each client operation
type Display interface {
	Show(text string)
}
