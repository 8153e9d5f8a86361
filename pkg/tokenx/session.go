package tokenx

import "time"

// Default token lifetimes. Access tokens are deliberately short: the
// refresh flow renews them silently, so a stolen access token goes
// stale almost immediately.
const (
	DefaultAccessTTL     = time.Minute
	DefaultRefreshTTL    = 15 * time.Minute
	DefaultRememberMeTTL = 7 * 24 * time.Hour
)

// Session is an access/refresh token pair for one account.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionFactory mints token pairs. Remember-me stretches ONLY the
// refresh lifetime; the access token stays short either way.
type SessionFactory struct {
	Codec *Codec

	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RememberMeTTL time.Duration
}

// NewSessionFactory returns a factory with the default lifetimes.
func NewSessionFactory(codec *Codec) *SessionFactory {
	return &SessionFactory{
		Codec:         codec,
		AccessTTL:     DefaultAccessTTL,
		RefreshTTL:    DefaultRefreshTTL,
		RememberMeTTL: DefaultRememberMeTTL,
	}
}

// Create mints a session for the identity. Both tokens carry the same
// snapshot, so their subject IDs always match; the request gate relies
// on that to pair them.
func (f *SessionFactory) Create(id Identity, rememberMe bool) (Session, error) {
	access, err := f.Codec.Issue(id, f.AccessTTL)
	if err != nil {
		return Session{}, err
	}

	refreshTTL := f.RefreshTTL
	if rememberMe {
		refreshTTL = f.RememberMeTTL
	}

	refresh, err := f.Codec.Issue(id, refreshTTL)
	if err != nil {
		return Session{}, err
	}

	return Session{AccessToken: access, RefreshToken: refresh}, nil
}
