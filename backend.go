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
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/utils/v2/client"
	"github.com/sirupsen/logrus"
)

//Version contains the version number of this library.
const Version = "1.0.0"

//DefaultUserAgent is the User-Agent string sent with every request, unless the
//caller has prepended their own User-Agent to the ProviderClient.
const DefaultUserAgent = "swiftblob/" + Version

//NewProviderClient prepares the gophercloud.ProviderClient that carries all
//requests for the given Config. The endpoint's base URL (without any version
//suffix) is used as the provider's IdentityBase, so the auth URL is
//IdentityBase + "auth/v1.0" and object URLs start with IdentityBase + "v1/".
//
//If httpClient is nil, http.DefaultClient's settings are used. If cfg.Debug is
//set, the transport is wrapped to log every request and response (with
//credentials masked) to the given logger.
func NewProviderClient(cfg Config, httpClient *http.Client, logger logrus.FieldLogger) (*gophercloud.ProviderClient, error) {
	provider, err := openstack.NewClient(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		provider.HTTPClient = *httpClient
	}
	if cfg.Debug {
		rt := provider.HTTPClient.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		provider.HTTPClient.Transport = &client.RoundTripper{
			Rt:     rt,
			Logger: loggerOrDefault(logger),
		}
	}
	provider.UserAgent.Prepend(DefaultUserAgent)
	return provider, nil
}

func loggerOrDefault(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
