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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	testAccount = "AUTH_test"
	testPrefix  = "phab"
	testUser    = "test:tester"
	testKey     = "testing"
)

//fakeSwift is a minimal in-memory Swift cluster that understands auth v1 and
//the container/object requests issued by Client.
type fakeSwift struct {
	server     *httptest.Server
	pathPrefix string

	mutex      sync.Mutex
	authCalls  int
	tokens     map[string]bool
	containers map[string]map[string][]byte
	requests   []string
	requestID  int
	//knobs for provoking errors
	omitToken     bool
	rejectTokens  bool
	authDelay     time.Duration
	plainTextErrs bool
}

func newFakeSwift(t *testing.T) *fakeSwift {
	t.Helper()
	return newFakeSwiftAt(t, "")
}

//newFakeSwiftAt serves the Swift API below the given path prefix, like a
//Swift behind a reverse proxy.
func newFakeSwiftAt(t *testing.T, pathPrefix string) *fakeSwift {
	t.Helper()
	s := &fakeSwift{
		pathPrefix: pathPrefix,
		tokens:     make(map[string]bool),
		containers: make(map[string]map[string][]byte),
	}

	root := mux.NewRouter()
	r := root
	if pathPrefix != "" {
		r = root.PathPrefix(pathPrefix).Subrouter()
	}
	r.Methods("GET").Path("/auth/v1.0").HandlerFunc(s.handleAuth)
	r.Methods("PUT").Path("/v1/{account}/{container}").HandlerFunc(s.handlePutContainer)
	r.Methods("PUT").Path("/v1/{account}/{container}/{object:.+}").HandlerFunc(s.handlePutObject)
	r.Methods("GET").Path("/v1/{account}/{container}/{object:.+}").HandlerFunc(s.handleGetObject)
	r.Methods("DELETE").Path("/v1/{account}/{container}/{object:.+}").HandlerFunc(s.handleDeleteObject)

	s.server = httptest.NewServer(root)
	t.Cleanup(s.server.Close)
	return s
}

func (s *fakeSwift) Config() Config {
	return Config{
		Enabled:         true,
		Account:         testAccount,
		ContainerPrefix: testPrefix,
		User:            testUser,
		Key:             NewSecret(testKey),
		Endpoint:        s.server.URL + s.pathPrefix,
	}
}

func (s *fakeSwift) AuthCalls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.authCalls
}

func (s *fakeSwift) Requests() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.requests...)
}

//RevokeTokens makes the server forget all issued tokens, as if they expired.
func (s *fakeSwift) RevokeTokens() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tokens = make(map[string]bool)
}

func (s *fakeSwift) Set(knob func(s *fakeSwift)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	knob(s)
}

func (s *fakeSwift) handleAuth(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.authCalls++
	s.requests = append(s.requests, "GET "+r.URL.Path)
	delay := s.authDelay
	s.mutex.Unlock()
	time.Sleep(delay)

	if r.Header.Get("X-Auth-User") != testUser || r.Header.Get("X-Auth-Key") != testKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.omitToken {
		w.Header().Set("X-Trans-Id", "tx-auth")
		w.WriteHeader(http.StatusOK)
		return
	}
	token := fmt.Sprintf("AUTH_tk%04d", s.authCalls)
	s.tokens[token] = true
	w.Header().Set("X-Auth-Token", token)
	w.Header().Set("X-Storage-Url", s.server.URL+s.pathPrefix+"/v1/"+testAccount)
	w.WriteHeader(http.StatusOK)
}

//checkRequest records the request and returns false if it has been answered
//with an error already.
func (s *fakeSwift) checkRequest(w http.ResponseWriter, r *http.Request) bool {
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	if s.rejectTokens || !s.tokens[r.Header.Get("X-Auth-Token")] {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	if mux.Vars(r)["account"] != testAccount {
		s.writeError(w, http.StatusForbidden, "AccessDenied", "Access denied")
		return false
	}
	return true
}

func (s *fakeSwift) writeError(w http.ResponseWriter, status int, code, message string) {
	s.requestID++
	if s.plainTextErrs {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>`+
		`<ErrorResponse><RequestID>tx%04d</RequestID>`+
		`<Error><Code>%s</Code><Message>%s</Message></Error></ErrorResponse>`,
		s.requestID, code, message)
}

func (s *fakeSwift) handlePutContainer(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.checkRequest(w, r) {
		return
	}
	name := mux.Vars(r)["container"]
	if _, exists := s.containers[name]; exists {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.containers[name] = make(map[string][]byte)
	w.WriteHeader(http.StatusCreated)
}

func (s *fakeSwift) handlePutObject(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.checkRequest(w, r) {
		return
	}
	if r.Header.Get("Content-Type") != "application/octet-stream" {
		s.writeError(w, http.StatusBadRequest, "InvalidContentType", "unexpected Content-Type")
		return
	}
	vars := mux.Vars(r)
	objects, exists := s.containers[vars["container"]]
	if !exists {
		s.writeError(w, http.StatusNotFound, "NoSuchContainer", "The specified container does not exist.")
		return
	}
	objects[vars["object"]] = body
	w.WriteHeader(http.StatusCreated)
}

func (s *fakeSwift) handleGetObject(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.checkRequest(w, r) {
		return
	}
	vars := mux.Vars(r)
	data, exists := s.containers[vars["container"]][vars["object"]]
	if !exists {
		s.writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (s *fakeSwift) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.checkRequest(w, r) {
		return
	}
	vars := mux.Vars(r)
	objects := s.containers[vars["container"]]
	if _, exists := objects[vars["object"]]; !exists {
		s.writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
		return
	}
	delete(objects, vars["object"])
	w.WriteHeader(http.StatusNoContent)
}

////////////////////////////////////////////////////////////////////////////////
// test fixtures

//recordingProfiler remembers each completed service call.
type recordingProfiler struct {
	mutex sync.Mutex
	calls []string
}

func (p *recordingProfiler) BeginServiceCall(call ServiceCall) func(error) {
	return func(err error) {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		p.calls = append(p.calls, call.Method+":"+outcome)
	}
}

func (p *recordingProfiler) Calls() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string(nil), p.calls...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func testWithEngine(t *testing.T, testCode func(e *Engine, s *fakeSwift)) {
	t.Helper()
	s := newFakeSwift(t)
	e := NewEngine(s.Config())
	e.Logger = quietLogger()
	e.Auth.Logger = e.Logger
	testCode(e, s)
}

func testWithClient(t *testing.T, testCode func(c *Client, s *fakeSwift)) {
	t.Helper()
	testWithEngine(t, func(e *Engine, s *fakeSwift) {
		c, err := e.Client()
		if !expectError(t, err, "") {
			t.FailNow()
		}
		testCode(c, s)
	})
}

////////////////////////////////////////////////////////////////////////////////
// assertions

func expectBool(t *testing.T, actual bool, expected bool) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected value %#v, got %#v instead\n", expected, actual)
	}
}

func expectInt(t *testing.T, actual int, expected int) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected value %d, got %d instead\n", expected, actual)
	}
}

func expectString(t *testing.T, actual string, expected string) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected value %q, got %q instead\n", expected, actual)
	}
}

func expectStrings(t *testing.T, actual []string, expected ...string) {
	t.Helper()
	if fmt.Sprintf("%q", actual) != fmt.Sprintf("%q", expected) {
		t.Errorf("expected %q, got %q instead\n", expected, actual)
	}
}

func expectBytes(t *testing.T, actual []byte, expected []byte) {
	t.Helper()
	if !bytes.Equal(actual, expected) {
		t.Errorf("expected %d bytes %q, got %d bytes %q instead\n",
			len(expected), truncate(expected), len(actual), truncate(actual))
	}
}

func truncate(buf []byte) []byte {
	if len(buf) > 32 {
		return buf[:32]
	}
	return buf
}

func expectError(t *testing.T, actual error, expected string) (ok bool) {
	t.Helper()
	if actual == nil {
		if expected != "" {
			t.Errorf("expected error %q, got no error\n", expected)
			return false
		}
	} else {
		if expected == "" {
			t.Errorf("expected no error, got %q\n", actual.Error())
			return false
		} else if expected != actual.Error() {
			t.Errorf("expected error %q, got %q instead\n", expected, actual.Error())
			return false
		}
	}

	return true
}

func expectErrorIs(t *testing.T, actual error, expected error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("expected error %q, got %v instead\n", expected.Error(), actual)
	}
}

var bg = context.Background()
