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
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

var (
	//ErrEmptyHandle is returned by Client methods when called with an empty
	//handle.
	ErrEmptyHandle = errors.New("missing object handle")
	//ErrMalformedContainerName is returned by Request.URL() if ContainerName
	//contains slashes.
	ErrMalformedContainerName = errors.New("container name may not contain slashes")
	//ErrNoContainerName is returned by Request.URL() if ObjectName is given, but
	//ContainerName is empty.
	ErrNoContainerName = errors.New("missing container name")
	//ErrMissingToken is returned by Authenticator.Authenticate() when the auth
	//endpoint reports success, but does not return an X-Auth-Token header. This
	//usually means that the endpoint does not speak Swift auth v1.
	ErrMissingToken = errors.New("missing X-Auth-Token header in Swift auth response")
)

//ConfigurationError is returned when a required setting is missing. It is
//generated before any request is sent.
type ConfigurationError struct {
	//Problems contains one error per missing or invalid setting.
	Problems *multierror.Error
}

//Error implements the builtin/error interface.
func (e *ConfigurationError) Error() string {
	msgs := make([]string, len(e.Problems.Errors))
	for idx, err := range e.Problems.Errors {
		msgs[idx] = err.Error()
	}
	return "invalid Swift configuration: " + strings.Join(msgs, "; ")
}

//Unwrap returns the individual problems.
func (e *ConfigurationError) Unwrap() []error {
	return e.Problems.WrappedErrors()
}

//AuthFailedError is returned by Authenticator.Authenticate() when the auth
//endpoint responds with an error status.
type AuthFailedError struct {
	StatusCode   int
	ResponseBody []byte
}

//Error implements the builtin/error interface.
func (e AuthFailedError) Error() string {
	return fmt.Sprintf("Swift authentication failed with status %d: %s",
		e.StatusCode, string(e.ResponseBody))
}

//ErrorDetail is one Code/Message pair from an XML error response.
type ErrorDetail struct {
	Code    string
	Message string
}

//ObjectStoreError is generated when a request to Swift fails with an error
//status and the response body contains an XML error envelope like:
//
//    <ErrorResponse>
//      <RequestID>tx0123456789</RequestID>
//      <Error><Code>NoSuchKey</Code><Message>Not found</Message></Error>
//    </ErrorResponse>
type ObjectStoreError struct {
	Method     string
	Path       string
	StatusCode int
	RequestID  string
	Errors     []ErrorDetail
}

//Error implements the builtin/error interface.
func (e ObjectStoreError) Error() string {
	msgs := make([]string, len(e.Errors))
	for idx, detail := range e.Errors {
		msgs[idx] = detail.Code + ": " + detail.Message
	}
	return fmt.Sprintf("%s %s failed with status %d (request ID %q): %s",
		e.Method, e.Path, e.StatusCode, e.RequestID, strings.Join(msgs, "; "))
}

//UnexpectedStatusCodeError is generated when a request to Swift fails with an
//error status, but the response body cannot be decoded as an XML error
//envelope. The raw body is preserved.
type UnexpectedStatusCodeError struct {
	Method       string
	Path         string
	StatusCode   int
	ResponseBody []byte
}

//Error implements the builtin/error interface.
func (e UnexpectedStatusCodeError) Error() string {
	return fmt.Sprintf("%s %s: expected 2xx response, got %d instead: %s",
		e.Method, e.Path, e.StatusCode, string(e.ResponseBody))
}

//Is checks if the given error was caused by a response with that status code.
//For example:
//
//	data, err := client.GetObject(ctx, handle)
//	if swiftblob.Is(err, http.StatusNotFound) {
//		// ... object does not exist ...
//	} else if err != nil {
//		// ... report error ...
//	}
func Is(err error, code int) bool {
	var ose ObjectStoreError
	if errors.As(err, &ose) {
		return ose.StatusCode == code
	}
	var use UnexpectedStatusCodeError
	if errors.As(err, &use) {
		return use.StatusCode == code
	}
	var afe AuthFailedError
	if errors.As(err, &afe) {
		return afe.StatusCode == code
	}
	return false
}

type xmlErrorDetail struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

//The root element name is not checked. Envelopes usually look like the one
//in the ObjectStoreError docs, but a bare <Error> root with Code/Message
//children is also accepted.
type xmlErrorEnvelope struct {
	XMLName   xml.Name
	RequestID string           `xml:"RequestID"`
	Errors    []xmlErrorDetail `xml:"Error"`
	Code      string           `xml:"Code"`
	Message   string           `xml:"Message"`
}

//decodeErrorResponse builds the error for a response with an error status.
func decodeErrorResponse(method, path string, statusCode int, body []byte) error {
	fallback := UnexpectedStatusCodeError{
		Method:       method,
		Path:         path,
		StatusCode:   statusCode,
		ResponseBody: body,
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return fallback
	}
	var envelope xmlErrorEnvelope
	err := xml.Unmarshal(body, &envelope)
	if err != nil {
		return fallback
	}

	result := ObjectStoreError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		RequestID:  strings.TrimSpace(envelope.RequestID),
	}
	for _, detail := range envelope.Errors {
		result.Errors = append(result.Errors, ErrorDetail{
			Code:    strings.TrimSpace(detail.Code),
			Message: strings.TrimSpace(detail.Message),
		})
	}
	if envelope.XMLName.Local == "Error" && envelope.Code != "" {
		result.Errors = append(result.Errors, ErrorDetail{
			Code:    strings.TrimSpace(envelope.Code),
			Message: strings.TrimSpace(envelope.Message),
		})
	}

	//well-formed XML without any of the envelope fields (e.g. Swift's
	//"<html><h1>Not Found</h1>...</html>") is not an error envelope
	if result.RequestID == "" && len(result.Errors) == 0 {
		return fallback
	}
	return result
}
