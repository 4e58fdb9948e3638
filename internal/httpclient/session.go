package httpclient

import (
	"net/http"
	"strings"
)

// Session binds a name (e.g. spec's "attacker"/named identity, or simply
// "default") to cookies and extra headers to attach to every request
// issued under it.
type Session struct {
	Name    string
	Cookies []*http.Cookie
	Headers map[string]string
}

// SessionManager tracks the named sessions a run may issue requests
// under, kept from the teacher's pkg/client/session.go.
type SessionManager struct {
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// AddSession registers cookieStr (spec §6.1 `-b COOKIE`, repeatable) as
// name's session.
func (sm *SessionManager) AddSession(name string, cookieStr string) {
	sm.sessions[name] = &Session{
		Name:    name,
		Cookies: parseCookies(cookieStr),
		Headers: make(map[string]string),
	}
}

func (sm *SessionManager) GetSession(name string) *Session {
	return sm.sessions[name]
}

func parseCookies(cookieStr string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(cookieStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			cookies = append(cookies, &http.Cookie{Name: kv[0], Value: kv[1]})
		}
	}
	return cookies
}
