package domain

import "errors"

var ErrNotAuthenticated = errors.New("operation requires an authenticated actor")

// Actor is the current cart owner. A guest carries only a session id and its
// cart lives in the guest store; an authenticated actor carries the upstream
// user id and bearer token and its cart lives server-side. Logout simply
// discards the authenticated actor, it never writes back to the guest store.
type Actor struct {
	UserID    string
	SessionID string
	Token     string
}

func GuestActor(sessionID string) Actor {
	return Actor{SessionID: sessionID}
}

func AuthenticatedActor(userID, token string) Actor {
	return Actor{UserID: userID, Token: token}
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// Scope names the cart this actor owns; cart-changed events carry it so a
// listener only re-derives its own badge.
func (a Actor) Scope() string {
	if a.Authenticated() {
		return "user:" + a.UserID
	}
	return "guest:" + a.SessionID
}
