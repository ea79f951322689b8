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
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/sirupsen/logrus"

	"github.com/majewsky/swiftblob/headers"
)

//Client issues object requests for one Config. Clients are cheap to
//construct; the expensive part (authentication) is cached by the
//Authenticator, which should be shared between clients.
type Client struct {
	provider *gophercloud.ProviderClient
	auth     *Authenticator
	account  string
	prefix   string
	user     string
	key      Secret
	profiler Profiler
	logger   logrus.FieldLogger
}

//ClientOpts contains optional parameters for NewClient().
type ClientOpts struct {
	//HTTPClient defaults to http.DefaultClient's settings.
	HTTPClient *http.Client
	Profiler   Profiler
	//Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

//NewClient validates the given Config and returns a Client for it. If the
//Config is incomplete, a *ConfigurationError is returned.
func NewClient(cfg Config, auth *Authenticator, opts ClientOpts) (*Client, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	logger := loggerOrDefault(opts.Logger)
	provider, err := NewProviderClient(cfg, opts.HTTPClient, logger)
	if err != nil {
		return nil, err
	}
	return &Client{
		provider: provider,
		auth:     auth,
		account:  cfg.Account,
		prefix:   cfg.ContainerPrefix,
		user:     cfg.User,
		key:      cfg.Key,
		profiler: profilerOrDefault(opts.Profiler),
		logger:   logger,
	}, nil
}

//ProviderClient returns the gophercloud.ProviderClient which carries the
//requests of this client.
func (c *Client) ProviderClient() *gophercloud.ProviderClient {
	return c.provider
}

//Token returns an auth token for this client's credentials, from the cache
//if possible.
func (c *Client) Token(ctx context.Context) (Secret, error) {
	return c.auth.Authenticate(ctx, c.provider, c.user, c.key)
}

//ContainerName returns the name of the container holding the given handle.
func (c *Client) ContainerName(handle string) string {
	return ContainerName(c.prefix, handle)
}

//PutContainer creates the container for the given handle using a PUT
//request. Swift answers 202 instead of 201 when the container exists
//already, so this can be called regardless of whether the container exists.
func (c *Client) PutContainer(ctx context.Context, handle string) error {
	if handle == "" {
		return ErrEmptyHandle
	}
	resp, err := Request{
		Method:        http.MethodPut,
		ContainerName: c.ContainerName(handle),
		Operation:     "putContainer",
	}.Do(ctx, c)
	if err != nil {
		return err
	}
	return drainResponseBody(resp)
}

//PutObject uploads the given data using a PUT request. The container must
//exist; see PutContainer().
func (c *Client) PutObject(ctx context.Context, handle string, data []byte) error {
	if handle == "" {
		return ErrEmptyHandle
	}
	hdr := make(headers.Headers)
	hdr.Set("Content-Type", "application/octet-stream")
	if data == nil {
		data = []byte{}
	}

	resp, err := Request{
		Method:        http.MethodPut,
		ContainerName: c.ContainerName(handle),
		ObjectName:    handle,
		Headers:       hdr,
		Body:          data,
		Operation:     "putObject",
	}.Do(ctx, c)
	if err != nil {
		return err
	}
	return drainResponseBody(resp)
}

//GetObject downloads the object with the given handle using a GET request.
//
//This operation fails with http.StatusNotFound if the object does not exist.
func (c *Client) GetObject(ctx context.Context, handle string) ([]byte, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}
	resp, err := Request{
		Method:        http.MethodGet,
		ContainerName: c.ContainerName(handle),
		ObjectName:    handle,
		Operation:     "getObject",
	}.Do(ctx, c)
	if err != nil {
		return nil, err
	}
	return collectResponseBody(resp)
}

//DeleteObject deletes the object with the given handle using a DELETE
//request.
//
//This operation fails with http.StatusNotFound if the object does not exist.
func (c *Client) DeleteObject(ctx context.Context, handle string) error {
	if handle == "" {
		return ErrEmptyHandle
	}
	resp, err := Request{
		Method:        http.MethodDelete,
		ContainerName: c.ContainerName(handle),
		ObjectName:    handle,
		Operation:     "deleteObject",
	}.Do(ctx, c)
	if err != nil {
		return err
	}
	return drainResponseBody(resp)
}

//WriteFile stores the given data under a freshly generated handle, and
//returns that handle. Since containers are not provisioned in advance, the
//container is created (or confirmed to exist) before each upload.
func (c *Client) WriteFile(ctx context.Context, data []byte) (string, error) {
	handle, err := NewHandle()
	if err != nil {
		return "", err
	}
	err = c.PutContainer(ctx, handle)
	if err != nil {
		return "", err
	}
	err = c.PutObject(ctx, handle, data)
	if err != nil {
		return "", err
	}
	c.logger.WithFields(logrus.Fields{
		"container": c.ContainerName(handle),
		"handle":    handle,
		"bytes":     len(data),
	}).Debug("stored object in Swift")
	return handle, nil
}
