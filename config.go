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
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

//Names of the configuration settings, as they appear in error messages and in
//the config files read by package config.
const (
	SettingEnabled   = "storage.swift.enabled"
	SettingAccount   = "storage.swift.account"
	SettingContainer = "storage.swift.container"
	SettingUser      = "storage.swift.user"
	SettingKey       = "storage.swift.key"
	SettingEndpoint  = "storage.swift.endpoint"
	SettingDebug     = "storage.swift.debug"
)

//Config contains everything needed to talk to one Swift account.
type Config struct {
	//Enabled must be true for CanWrite() to succeed. Reading and deleting
	//existing objects works regardless.
	Enabled bool
	//Account is the Swift account name, e.g. "AUTH_phab".
	Account string
	//ContainerPrefix is the name prefix for containers. Objects are spread
	//over containers named like "<prefix>-<two hex digits>".
	ContainerPrefix string
	//User and Key are exchanged for an auth token at the endpoint.
	User string
	Key  Secret
	//Endpoint is the base URL of the Swift cluster, e.g.
	//"https://swift.example.com". Auth requests go to "<Endpoint>/auth/v1.0"
	//and object requests to "<Endpoint>/v1/<Account>/...". A path in the
	//Endpoint (e.g. "https://example.com/swift") is kept as a prefix for both.
	//A trailing version segment like "/v1" is stripped by gophercloud.
	Endpoint string
	//Debug enables logging of all HTTP requests and responses. Credentials
	//are masked in these logs.
	Debug bool
}

//ConfigSource is something that can supply a Config. The Engine asks its
//ConfigSource again for every operation, so that configuration changes take
//effect without a restart.
type ConfigSource interface {
	SwiftConfig() (Config, error)
}

//SwiftConfig implements the ConfigSource interface by returning the Config
//itself.
func (c Config) SwiftConfig() (Config, error) {
	return c, nil
}

//Validate returns a *ConfigurationError if any of the settings required for
//talking to Swift are missing or malformed.
func (c Config) Validate() error {
	var problems *multierror.Error
	missing := func(setting string) {
		problems = multierror.Append(problems, fmt.Errorf("no %q specified", setting))
	}

	if c.Account == "" {
		missing(SettingAccount)
	}
	if c.ContainerPrefix == "" {
		missing(SettingContainer)
	} else if strings.Contains(c.ContainerPrefix, "/") {
		problems = multierror.Append(problems,
			fmt.Errorf("%q may not contain slashes", SettingContainer))
	}
	if c.User == "" {
		missing(SettingUser)
	}
	if c.Key.IsEmpty() {
		missing(SettingKey)
	}
	if c.Endpoint == "" {
		missing(SettingEndpoint)
	}

	if problems == nil {
		return nil
	}
	return &ConfigurationError{Problems: problems}
}

//CanWrite returns true if the Swift engine is enabled and all required
//settings are present.
func (c Config) CanWrite() bool {
	return c.Enabled && c.Validate() == nil
}
