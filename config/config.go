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

//Package config reads a swiftblob.Config from viper. The settings are:
//
//    storage:
//      swift:
//        enabled:   true
//        account:   AUTH_phab
//        container: phab             # container name prefix
//        user:      phab:files
//        key:       { fromEnv: SWIFT_KEY }
//        endpoint:  https://swift.example.com
//        debug:     false
//
//Each setting can also be given as an environment variable, e.g.
//SWIFTBLOB_STORAGE_SWIFT_KEY.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/majewsky/swiftblob"
)

//EnvPrefix is the prefix for environment variables recognized by New().
const EnvPrefix = "SWIFTBLOB"

//Default values for settings that are not given.
const (
	DefaultAccount   = "phab"
	DefaultContainer = "phab"
	DefaultUser      = "phabricator:files"
)

//New returns a viper instance with defaults and environment variable lookup
//set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

//SetDefaults sets the default values for all settings on the given viper
//instance. The key and endpoint have no defaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(swiftblob.SettingEnabled, false)
	v.SetDefault(swiftblob.SettingAccount, DefaultAccount)
	v.SetDefault(swiftblob.SettingContainer, DefaultContainer)
	v.SetDefault(swiftblob.SettingUser, DefaultUser)
	v.SetDefault(swiftblob.SettingDebug, false)
}

//Load reads a swiftblob.Config from the given viper instance. Missing settings
//are not reported here; that happens in swiftblob.Config.Validate().
func Load(v *viper.Viper) (swiftblob.Config, error) {
	key, err := readSecret(v, swiftblob.SettingKey)
	if err != nil {
		return swiftblob.Config{}, err
	}
	return swiftblob.Config{
		Enabled:         v.GetBool(swiftblob.SettingEnabled),
		Account:         v.GetString(swiftblob.SettingAccount),
		ContainerPrefix: v.GetString(swiftblob.SettingContainer),
		User:            v.GetString(swiftblob.SettingUser),
		Key:             key,
		Endpoint:        strings.TrimSpace(v.GetString(swiftblob.SettingEndpoint)),
		Debug:           v.GetBool(swiftblob.SettingDebug),
	}, nil
}

//readSecret accepts either a plain string or `{ fromEnv: VARIABLE }`.
func readSecret(v *viper.Viper, setting string) (swiftblob.Secret, error) {
	switch value := v.Get(setting).(type) {
	case nil:
		return swiftblob.Secret{}, nil
	case string:
		return swiftblob.NewSecret(value), nil
	case map[string]interface{}:
		return secretFromEnv(setting, value)
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(value))
		for k, v := range value {
			converted[fmt.Sprint(k)] = v
		}
		return secretFromEnv(setting, converted)
	default:
		return swiftblob.Secret{}, fmt.Errorf("invalid value for %q: expected string or {fromEnv: VARIABLE}", setting)
	}
}

func secretFromEnv(setting string, value map[string]interface{}) (swiftblob.Secret, error) {
	for k, varName := range value {
		if strings.EqualFold(k, "fromEnv") {
			name := fmt.Sprint(varName)
			secret := os.Getenv(name)
			if secret == "" {
				return swiftblob.Secret{}, fmt.Errorf("invalid value for %q: environment variable %q is not set", setting, name)
			}
			return swiftblob.NewSecret(secret), nil
		}
	}
	return swiftblob.Secret{}, fmt.Errorf("invalid value for %q: expected string or {fromEnv: VARIABLE}", setting)
}

//Source is a swiftblob.ConfigSource that reads the current settings from a
//viper instance each time it is asked.
type Source struct {
	Viper *viper.Viper
}

//SwiftConfig implements the swiftblob.ConfigSource interface.
func (s Source) SwiftConfig() (swiftblob.Config, error) {
	return Load(s.Viper)
}
