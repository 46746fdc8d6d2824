package httpapi

import (
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"medchat/internal/chat"
)

const (
	sessionCookie = "medchat_session"
	// sessionHeader lets API clients without cookies name their session.
	sessionHeader = "X-Session-ID"
)

// requestSessionID reads the session id from the header, then the cookie.
func requestSessionID(r *http.Request) string {
	if v := r.Header.Get(sessionHeader); v != "" {
		return v
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// openSession returns the caller's session, creating it and setting the
// cookie when needed.
func openSession(w http.ResponseWriter, r *http.Request, svc Service) *chat.Session {
	sess, created := svc.Open(requestSessionID(r))
	if created {
		sessionsIssuedTotal.Inc()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
	}
	return sess
}

// flashes carries one error message per session from a POST to the next
// page render.
type flashes struct {
	msgs *expirable.LRU[string, string]
}

func newFlashes() *flashes {
	return &flashes{msgs: expirable.NewLRU[string, string](4096, nil, 5*time.Minute)}
}

func (f *flashes) set(id, msg string) { f.msgs.Add(id, msg) }

// take returns and removes the message for id.
func (f *flashes) take(id string) string {
	msg, ok := f.msgs.Get(id)
	if !ok {
		return ""
	}
	f.msgs.Remove(id)
	return msg
}
