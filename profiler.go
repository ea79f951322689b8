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

//ServiceCall describes an outbound call to Swift for the purpose of
//profiling.
type ServiceCall struct {
	//Type is always "swift".
	Type string
	//Method is one of "authenticate", "putContainer", "putObject", "getObject"
	//or "deleteObject".
	Method string
	//Path is the container or object path that the call refers to. It is empty
	//for "authenticate".
	Path string
}

//Profiler is the extension point for observing calls to Swift. Before each
//HTTP request, BeginServiceCall is called. The function returned by it is
//called once the request has completed, with the error that the call
//produced (or nil).
//
//Implementations are provided in package profiler.
type Profiler interface {
	BeginServiceCall(call ServiceCall) (end func(err error))
}

type noopProfiler struct{}

func (noopProfiler) BeginServiceCall(ServiceCall) func(error) {
	return func(error) {}
}

func profilerOrDefault(p Profiler) Profiler {
	if p == nil {
		return noopProfiler{}
	}
	return p
}
