package chatstate

import (
	"fmt"

	"github.com/patrickmn/go-cache"
)

// loginCacheKey is the singleton key under which the login screen snapshots
// itself under a single well-known key.
const loginCacheKey = "login"

// StateCache maps screen identity to a snapshot of that screen's state, so a
// logout followed by relogin to the same server restores prior chat
// context. Backed by patrickmn/go-cache with no expiry — entries live for
// the process lifetime only, with no persistence across restarts.
type StateCache struct {
	c *cache.Cache
}

// NewStateCache builds an empty cache.
func NewStateCache() *StateCache {
	return &StateCache{c: cache.New(cache.NoExpiration, cache.NoExpiration)}
}

// chatKey builds the (username, password, server-addr) triple key.
func chatKey(username, password, serverAddr string) string {
	return fmt.Sprintf("chat:%s\x00%s\x00%s", username, password, serverAddr)
}

// PutLogin snapshots the login state.
func (sc *StateCache) PutLogin(s LoginState) {
	sc.c.SetDefault(loginCacheKey, s)
}

// GetLogin retrieves a cached login snapshot, if any.
func (sc *StateCache) GetLogin() (LoginState, bool) {
	v, ok := sc.c.Get(loginCacheKey)
	if !ok {
		return LoginState{}, false
	}
	return v.(LoginState), true
}

// PutChat snapshots the chat state under its (username,password,server) identity.
func (sc *StateCache) PutChat(username, password, serverAddr string, s *ChatState) {
	sc.c.SetDefault(chatKey(username, password, serverAddr), s)
}

// GetChat retrieves a cached chat snapshot, if any.
func (sc *StateCache) GetChat(username, password, serverAddr string) (*ChatState, bool) {
	v, ok := sc.c.Get(chatKey(username, password, serverAddr))
	if !ok {
		return nil, false
	}
	return v.(*ChatState), true
}
