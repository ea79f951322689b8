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
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/objectstorage/v1/swauth"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/majewsky/swiftblob/headers"
)

var successCodes []int

func init() {
	//prepare input for gophercloud.RequestOpts.OkCodes such that every
	//non-error status counts as success
	for code := 200; code < 300; code++ {
		successCodes = append(successCodes, code)
	}
}

//Authenticator obtains auth tokens from the Swift auth endpoint (Swift auth
//v1, i.e. "GET /auth/v1.0" with X-Auth-User and X-Auth-Key) and keeps them in
//a TokenCache, so that most operations do not need to authenticate at all.
//
//WARNING: Always use NewAuthenticator() to construct Authenticator instances.
//An Authenticator must not be copied after first use.
type Authenticator struct {
	//Cache holds the tokens. It may be shared with other Authenticators, but
	//then each of them needs its own CacheKey.
	Cache TokenCache
	//CacheKey defaults to DefaultTokenCacheKey.
	CacheKey string
	//TTL defaults to DefaultTokenTTL.
	TTL time.Duration
	//Profiler and Logger are optional.
	Profiler Profiler
	Logger   logrus.FieldLogger

	//collapses concurrent cache misses into one auth request
	group singleflight.Group
}

//NewAuthenticator prepares a new Authenticator that stores its tokens in the
//given cache. If cache is nil, a new MemoryTokenCache is used.
func NewAuthenticator(cache TokenCache) *Authenticator {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &Authenticator{
		Cache:    cache,
		CacheKey: DefaultTokenCacheKey,
		TTL:      DefaultTokenTTL,
	}
}

func (a *Authenticator) cacheKey() string {
	if a.CacheKey == "" {
		return DefaultTokenCacheKey
	}
	return a.CacheKey
}

func (a *Authenticator) ttl() time.Duration {
	if a.TTL <= 0 {
		return DefaultTokenTTL
	}
	return a.TTL
}

//Authenticate returns an auth token for the given credentials. A cached token
//is returned without any network I/O as long as it has not expired. Otherwise,
//a new token is requested from the auth endpoint of the given provider.
//
//Possible errors include AuthFailedError (when the auth endpoint returns an
//error status) and ErrMissingToken. Transport errors are returned unaltered.
func (a *Authenticator) Authenticate(ctx context.Context, provider *gophercloud.ProviderClient, user string, key Secret) (Secret, error) {
	cacheKey := a.cacheKey()
	if token, ok := a.Cache.Get(cacheKey); ok {
		return token, nil
	}

	//the shared call outlives any single caller's cancellation; each caller
	//only gives up on its own ctx
	sharedCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(cacheKey, func() (interface{}, error) {
		//another caller might have filled the cache while we were queued up
		if token, ok := a.Cache.Get(cacheKey); ok {
			return token, nil
		}
		token, err := a.requestToken(sharedCtx, provider, user, key)
		if err != nil {
			return nil, err
		}
		a.Cache.Put(cacheKey, token, a.ttl())
		return token, nil
	})

	select {
	case <-ctx.Done():
		return Secret{}, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return Secret{}, result.Err
		}
		return result.Val.(Secret), nil
	}
}

//Invalidate removes the given token from the cache, e.g. after Swift has
//rejected it. If the cache already holds a different token (because some
//other caller has re-authenticated in the meantime), it is left alone.
func (a *Authenticator) Invalidate(token Secret) {
	cacheKey := a.cacheKey()
	cached, ok := a.Cache.Get(cacheKey)
	if ok && cached.Reveal() == token.Reveal() {
		a.Cache.Delete(cacheKey)
	}
}

func (a *Authenticator) requestToken(ctx context.Context, provider *gophercloud.ProviderClient, user string, key Secret) (Secret, error) {
	logger := loggerOrDefault(a.Logger)

	authHeaders, err := swauth.AuthOpts{User: user, Key: key.Reveal()}.ToAuthOptsMap()
	if err != nil {
		return Secret{}, err
	}
	url := provider.IdentityBase + "auth/v1.0"

	end := profilerOrDefault(a.Profiler).BeginServiceCall(ServiceCall{
		Type:   "swift",
		Method: "authenticate",
	})
	resp, err := provider.Request(ctx, http.MethodGet, url, &gophercloud.RequestOpts{
		MoreHeaders: authHeaders,
		OkCodes:     successCodes,
	})
	if err != nil {
		var codeErr gophercloud.ErrUnexpectedResponseCode
		if errors.As(err, &codeErr) {
			err = AuthFailedError{
				StatusCode:   codeErr.Actual,
				ResponseBody: codeErr.Body,
			}
			logger.WithFields(logrus.Fields{
				"url":    url,
				"user":   user,
				"status": codeErr.Actual,
			}).Error("Swift authentication failed")
		}
		end(err)
		return Secret{}, err
	}

	token := resp.Header.Get("X-Auth-Token")
	if token == "" {
		respHeaders := headers.Redact(resp.Header)
		logger.WithFields(logrus.Fields{
			"url":        url,
			"status":     resp.StatusCode,
			"request_id": respHeaders.Get("X-Trans-Id"),
			"headers":    respHeaders,
		}).Error("Swift auth response did not contain a token")
		end(ErrMissingToken)
		return Secret{}, ErrMissingToken
	}

	end(nil)
	logger.WithField("user", user).Debug("obtained new Swift auth token")
	return NewSecret(token), nil
}
