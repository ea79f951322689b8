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

//Package headers contains a single-valued header map that is used for
//building Swift requests and for logging Swift responses without leaking
//credentials.
package headers

import (
	"net/http"
	"net/textproto"
)

//Sensitive lists the headers (in canonical form) whose values are credentials.
//Redacted() masks the values of these headers.
var Sensitive = map[string]bool{
	"X-Auth-Key":      true,
	"X-Auth-Token":    true,
	"X-Storage-Token": true,
	"X-Service-Token": true,
	"Authorization":   true,
}

//Headers works like http.Header, but does not allow multiple values per key.
//
//If you write the map directly, without using the provided methods, you must
//normalize all keys with textproto.CanonicalMIMEHeaderKey(). Otherwise, the
//results are undefined.
type Headers map[string]string

//Get returns the value for the specified header.
func (h Headers) Get(key string) string {
	if h == nil {
		return ""
	}
	k := textproto.CanonicalMIMEHeaderKey(key)
	return h[k]
}

//Set sets a new value for the specified header, possibly overwriting a
//previous value.
func (h Headers) Set(key, value string) {
	k := textproto.CanonicalMIMEHeaderKey(key)
	h[k] = value
}

//ToHTTP converts this map into a http.Header.
func (h Headers) ToHTTP() http.Header {
	dest := make(http.Header, len(h))
	for k, v := range h {
		dest.Set(k, v)
	}
	return dest
}

//FromHTTP populates this map with the headers in the given http.Header. When a
//header has multiple values, every value but the first one will be discarded.
func (h Headers) FromHTTP(src http.Header) {
	for k, v := range src {
		if len(v) > 0 {
			h.Set(k, v[0])
		}
	}
}

//Redacted returns a copy of this map in which the values of all Sensitive
//headers have been replaced by "[redacted]". Empty values stay empty, so that
//the log still shows whether the header was present at all.
func (h Headers) Redacted() Headers {
	result := make(Headers, len(h))
	for k, v := range h {
		if v != "" && Sensitive[k] {
			v = "[redacted]"
		}
		result[k] = v
	}
	return result
}

//Redact is a shorthand for converting a http.Header into Headers and calling
//Redacted() on the result.
func Redact(src http.Header) Headers {
	h := make(Headers, len(src))
	h.FromHTTP(src)
	return h.Redacted()
}
