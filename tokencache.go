/******************************************************************************
*
*  Copyright 2018 Stefan Majewsky <majewsky@gmx.net>
*
*  Licensed under the Apache License, Version 2.0 (the "License");
*  you may not use this file except in compliance with the License.
*  You may obtain a copy of the License at
*
*      http://www.apache.org/licenses/LICENSE-2.0
*
*  Unless required by applicable law or agreed to in writing, software
*  distributed under the License is distributed on an "AS IS" BASIS,
*  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*  See the License for the specific language governing permissions and
*  limitations under the License.
*
******************************************************************************/

package swiftblob

import (
	"sync"
	"time"
)

const (
	//DefaultTokenCacheKey is the key under which the Authenticator stores its
	//token when no other key has been configured.
	DefaultTokenCacheKey = "swift.auth-token"
	//DefaultTokenTTL is how long a token is reused before authenticating again.
	DefaultTokenTTL = 7 * 24 * time.Hour
)

//TokenCache is the interface between the Authenticator and whatever stores its
//auth tokens between operations. Implementations must be safe for concurrent
//use. Concurrent writers may overwrite each other; the last write wins.
type TokenCache interface {
	//Get returns the token stored under this key, or false if there is none or
	//if it has expired.
	Get(key string) (Secret, bool)
	//Put stores the token under this key, replacing any previous entry. The
	//entry expires after the given TTL.
	Put(key string, token Secret, ttl time.Duration)
	//Delete removes the entry for this key, if any.
	Delete(key string)
}

//MemoryTokenCache is a TokenCache that lives in the process memory. The zero
//value is ready to use.
type MemoryTokenCache struct {
	//Now can be set to replace time.Now, e.g. in tests.
	Now func() time.Time

	mutex   sync.Mutex
	entries map[string]cachedToken
}

type cachedToken struct {
	token     Secret
	expiresAt time.Time
}

//NewMemoryTokenCache returns an empty MemoryTokenCache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

//Get implements the TokenCache interface.
func (c *MemoryTokenCache) Get(key string) (Secret, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return Secret{}, false
	}
	if !c.now().Before(entry.expiresAt) {
		//expired entries are only removed passively
		delete(c.entries, key)
		return Secret{}, false
	}
	return entry.token, true
}

//Put implements the TokenCache interface.
func (c *MemoryTokenCache) Put(key string, token Secret, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]cachedToken)
	}
	c.entries[key] = cachedToken{
		token:     token,
		expiresAt: c.now().Add(ttl),
	}
}

//Delete implements the TokenCache interface.
func (c *MemoryTokenCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}
