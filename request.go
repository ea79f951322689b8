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
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/sirupsen/logrus"

	"github.com/majewsky/swiftblob/headers"
)

//Request contains the parameters of a single request to the Swift API.
type Request struct {
	Method        string //"GET", "PUT" or "DELETE"
	ContainerName string
	ObjectName    string //empty for requests on containers
	Headers       headers.Headers
	Body          []byte
	//Operation is reported to the Profiler as ServiceCall.Method.
	Operation string
}

//Path returns the container name and object name joined with a slash, or
//just the container name for container requests.
func (r Request) Path() string {
	if r.ObjectName == "" {
		return r.ContainerName
	}
	return r.ContainerName + "/" + r.ObjectName
}

//URL returns the full URL for this request, which looks like
//"<base>/v1/<account>/<container>/<object>". The base is the provider's
//IdentityBase, so a path in the endpoint URL is kept as a prefix, same as for
//the auth URL.
func (r Request) URL(provider *gophercloud.ProviderClient, account string) (string, error) {
	uri, err := url.Parse(provider.IdentityBase)
	if err != nil {
		return "", err
	}

	if r.ContainerName == "" {
		return "", ErrNoContainerName
	}
	if strings.Contains(r.ContainerName, "/") {
		return "", ErrMalformedContainerName
	}
	uri.Path = strings.TrimSuffix(uri.Path, "/") + "/v1/" + account + "/" + r.Path()
	uri.RawPath = ""
	return uri.String(), nil
}

//Do executes this request on the given client. If the request yields a 2xx
//response, the response is returned and the caller must close its body.
//Otherwise, the response body is decoded into an ObjectStoreError or an
//UnexpectedStatusCodeError.
//
//If Swift rejects the auth token with 401, the token is invalidated, a new one
//is obtained, and the request is sent once more.
func (r Request) Do(ctx context.Context, c *Client) (*http.Response, error) {
	return r.do(ctx, c, false)
}

func (r Request) do(ctx context.Context, c *Client, afterReauth bool) (*http.Response, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	//build request
	uri, err := r.URL(c.provider, c.account)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, uri, body)
	if err != nil {
		return nil, err
	}

	req.Header = r.Headers.ToHTTP()
	req.Header.Set("User-Agent", c.provider.UserAgent.Join())
	req.Header.Set("X-Auth-Token", token.Reveal())

	end := c.profiler.BeginServiceCall(ServiceCall{
		Type:   "swift",
		Method: r.Operation,
		Path:   r.Path(),
	})
	resp, err := c.provider.HTTPClient.Do(req)
	if err != nil {
		end(err)
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		end(nil)
		return resp, nil
	}

	//detect expired token
	if resp.StatusCode == http.StatusUnauthorized && !afterReauth {
		buf, err := collectResponseBody(resp)
		if err != nil {
			end(err)
			return nil, err
		}
		end(decodeErrorResponse(r.Method, r.Path(), resp.StatusCode, buf))
		c.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.Path(),
		}).Info("Swift rejected the auth token, authenticating again")
		c.auth.Invalidate(token)
		//restart request with new token
		return r.do(ctx, c, true)
	}

	//other error status -> decode error envelope
	buf, err := collectResponseBody(resp)
	if err != nil {
		end(err)
		return nil, err
	}
	err = decodeErrorResponse(r.Method, r.Path(), resp.StatusCode, buf)
	end(err)
	return nil, err
}

func drainResponseBody(r *http.Response) error {
	_, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		return err
	}
	return r.Body.Close()
}

func collectResponseBody(r *http.Response) ([]byte, error) {
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return buf, r.Body.Close()
}
