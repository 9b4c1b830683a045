package remote

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a remote login in the SourceForge shell form user,label@host.
type Target struct {
	User  string
	Label string // optional project label
	Host  string
	Port  int // 0 means the transport default
}

// ParseTarget parses "user[,label]@host[:port]".
func ParseTarget(s string) (Target, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return Target{}, fmt.Errorf("invalid remote target %q: want user[,label]@host", s)
	}
	login, host := s[:at], s[at+1:]

	var t Target
	if user, label, ok := strings.Cut(login, ","); ok {
		if label == "" {
			return Target{}, fmt.Errorf("invalid remote target %q: empty label", s)
		}
		t.User, t.Label = user, label
	} else {
		t.User = login
	}
	if t.User == "" {
		return Target{}, fmt.Errorf("invalid remote target %q: empty user", s)
	}

	if h, p, ok := strings.Cut(host, ":"); ok {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Target{}, fmt.Errorf("invalid remote target %q: bad port %q", s, p)
		}
		host, t.Port = h, port
	}
	if host == "" {
		return Target{}, fmt.Errorf("invalid remote target %q: empty host", s)
	}
	t.Host = host
	return t, nil
}

// Login is the SSH user name, label included.
func (t Target) Login() string {
	if t.Label == "" {
		return t.User
	}
	return t.User + "," + t.Label
}

// String renders user,label@host, or just host while the user is unresolved.
func (t Target) String() string {
	if t.User == "" {
		return t.Host
	}
	return t.Login() + "@" + t.Host
}

// Spec renders the scp destination user,label@host:path.
func (t Target) Spec(path string) string {
	return t.String() + ":" + path
}
