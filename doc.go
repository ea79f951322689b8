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

/*

Package swiftblob stores file blobs in OpenStack Swift
(https://github.com/openstack/swift, https://openstack.org) for applications
that want a pluggable storage engine instead of local disk or a database.

It authenticates with Swift's built-in auth (v1, "X-Auth-User" and
"X-Auth-Key" in exchange for "X-Auth-Token"), so you start with a Config:

	cfg := swiftblob.Config{
		Enabled:         true,
		Account:         "AUTH_phab",
		ContainerPrefix: "phab",
		User:            "phab:files",
		Key:             swiftblob.NewSecret(os.Getenv("SWIFT_KEY")),
		Endpoint:        "https://swift.example.com",
	}
	engine := swiftblob.NewEngine(cfg)

	handle, err := engine.WriteFile(ctx, []byte("hello world"))
	data, err := engine.ReadFile(ctx, handle)
	err = engine.DeleteFile(ctx, handle)

Package config can build the Config from a viper instance instead.

Handles and containers

Every blob gets a random handle like "ab/cd/ef0123456789abcd". The handle is
the object name, and the container name is derived from it by hashing:

	swiftblob.ContainerName("phab", "ab/cd/ef01234567890123") //returns "phab-41"

There is no stored mapping, so the container for a handle is always recomputed
the same way. Objects are spread across up to 256 containers per prefix.

Caching

Auth tokens are stored in a TokenCache for up to seven days, so most
operations need only a single HTTP request. When Swift rejects a cached token
with 401, the token is dropped, a new one is requested, and the request is
sent once more.

*/
package swiftblob
