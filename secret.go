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

const redacted = "[redacted]"

//Secret holds a credential (such as the Swift API key or an auth token). All
//the usual ways of turning a value into a string (fmt verbs, JSON, text
//marshaling) yield "[redacted]" instead of the actual value. Use Reveal() to
//obtain the value when it needs to go on the wire.
//
//    key := swiftblob.NewSecret("hunter2")
//    fmt.Println(key)          //prints "[redacted]"
//    req.Header.Set("X-Auth-Key", key.Reveal())
type Secret struct {
	value string
}

//NewSecret wraps the given value.
func NewSecret(value string) Secret {
	return Secret{value}
}

//Reveal returns the wrapped value.
func (s Secret) Reveal() string {
	return s.value
}

//IsEmpty checks whether the wrapped value is the empty string.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

//String implements the fmt.Stringer interface.
func (s Secret) String() string {
	return redacted
}

//GoString implements the fmt.GoStringer interface.
func (s Secret) GoString() string {
	return redacted
}

//MarshalText implements the encoding.TextMarshaler interface.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

//MarshalJSON implements the json.Marshaler interface.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
