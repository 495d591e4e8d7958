package server

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// successPage is rendered in the user's browser once the token exchange
// completes. Everything after this point happens back in the terminal.
const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>jfin - Connected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #101018; color: #e8e8ef; }
        .card { text-align: center; padding: 2.5rem 3rem; border: 1px solid #2a2a3a;
                border-radius: 10px; background: #181826; }
        h1 { color: #aa5cc3; margin: 0 0 0.75rem 0; font-size: 1.4rem; }
        p { color: #9a9aa8; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>✓ Spotify connected</h1>
        <p>jfin has its token. You can close this tab and return to the terminal.</p>
    </div>
</body>
</html>
`

// OAuthResult is the outcome of one authorization attempt: either a token
// or the reason the flow failed.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the loopback callback for the authorization code
// flow. The first callback decides the run: the state token is checked,
// the code is exchanged, and the outcome is published on Result. Any
// later hit on the callback is a replay and gets rejected outright.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	claimed atomic.Bool
	publish sync.Once
	done    chan OAuthResult
}

// NewOAuthHandler creates a callback handler bound to one state token.
// The caller generates the state; it must be random per run.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config: config,
		state:  state,
		done:   make(chan OAuthResult, 1),
	}
}

// Routes returns the paths this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.claimed.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("state token mismatch")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization refused: %s - %s",
			query.Get("error"), query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send publishes the outcome. Only the first call wins; the channel is
// closed afterwards so late receivers see a zero result.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.publish.Do(func() {
		h.done <- result
		close(h.done)
	})
}

// Result returns the channel the flow outcome arrives on. Exactly one
// value is delivered.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.done
}
