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

	"github.com/sirupsen/logrus"
)

const (
	//EngineIdentifier is returned by Engine.Identifier().
	EngineIdentifier = "swift"
	//EnginePriority is returned by Engine.Priority().
	EnginePriority = 100
)

//StorageEngine is the interface that a host application uses to store file
//blobs. Engine is the implementation backed by Swift.
type StorageEngine interface {
	//Identifier is a short name for the engine, stored by the host next to
	//each handle.
	Identifier() string
	//Priority is used by the host to order several engines that can all
	//write.
	Priority() int
	//CanWrite returns false if the engine is disabled or not fully configured.
	CanWrite() bool
	//WriteFile stores data and returns a handle for it.
	WriteFile(ctx context.Context, data []byte) (handle string, err error)
	//ReadFile returns the data that was stored under the handle.
	ReadFile(ctx context.Context, handle string) ([]byte, error)
	//DeleteFile removes the data that was stored under the handle.
	DeleteFile(ctx context.Context, handle string) error
}

var _ StorageEngine = &Engine{}

//Engine is a StorageEngine that stores blobs in Swift. Each operation obtains
//a fresh Config from the Source and builds a new Client for it. Auth tokens
//are shared across operations through the Authenticator.
//
//WARNING: Always use NewEngine() to construct Engine instances.
type Engine struct {
	Source ConfigSource
	Auth   *Authenticator
	//HTTPClient, Profiler and Logger are passed on to each Client.
	HTTPClient *http.Client
	Profiler   Profiler
	Logger     logrus.FieldLogger
	//WriteGuard, if not nil, is called before each write or delete. If it
	//returns an error, the operation is aborted with that error. Hosts use this
	//to refuse writes in contexts where writes are forbidden (e.g. during GET
	//requests).
	WriteGuard func(ctx context.Context) error
}

//NewEngine prepares an Engine with a new Authenticator backed by a
//MemoryTokenCache.
func NewEngine(source ConfigSource) *Engine {
	return &Engine{
		Source: source,
		Auth:   NewAuthenticator(NewMemoryTokenCache()),
	}
}

//Identifier implements the StorageEngine interface.
func (e *Engine) Identifier() string {
	return EngineIdentifier
}

//Priority implements the StorageEngine interface.
func (e *Engine) Priority() int {
	return EnginePriority
}

//CanWrite implements the StorageEngine interface.
func (e *Engine) CanWrite() bool {
	cfg, err := e.Source.SwiftConfig()
	if err != nil {
		loggerOrDefault(e.Logger).WithError(err).Warn("cannot load Swift configuration")
		return false
	}
	return cfg.CanWrite()
}

//Client builds a Client from the current configuration.
func (e *Engine) Client() (*Client, error) {
	cfg, err := e.Source.SwiftConfig()
	if err != nil {
		return nil, err
	}
	return NewClient(cfg, e.Auth, ClientOpts{
		HTTPClient: e.HTTPClient,
		Profiler:   e.Profiler,
		Logger:     e.Logger,
	})
}

func (e *Engine) checkWriteGuard(ctx context.Context) error {
	if e.WriteGuard == nil {
		return nil
	}
	return e.WriteGuard(ctx)
}

//WriteFile implements the StorageEngine interface.
func (e *Engine) WriteFile(ctx context.Context, data []byte) (string, error) {
	err := e.checkWriteGuard(ctx)
	if err != nil {
		return "", err
	}
	c, err := e.Client()
	if err != nil {
		return "", err
	}
	return c.WriteFile(ctx, data)
}

//ReadFile implements the StorageEngine interface.
func (e *Engine) ReadFile(ctx context.Context, handle string) ([]byte, error) {
	c, err := e.Client()
	if err != nil {
		return nil, err
	}
	return c.GetObject(ctx, handle)
}

//DeleteFile implements the StorageEngine interface.
func (e *Engine) DeleteFile(ctx context.Context, handle string) error {
	err := e.checkWriteGuard(ctx)
	if err != nil {
		return err
	}
	c, err := e.Client()
	if err != nil {
		return err
	}
	return c.DeleteObject(ctx, handle)
}
