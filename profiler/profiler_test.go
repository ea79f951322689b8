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

package profiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majewsky/swiftblob"
)

var getCall = swiftblob.ServiceCall{Type: "swift", Method: "getObject", Path: "phab-41/ab/cd/ef01234567890123"}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.BeginServiceCall(getCall)(nil)
	p.BeginServiceCall(getCall)(nil)
	p.BeginServiceCall(getCall)(errors.New("404"))
	p.BeginServiceCall(swiftblob.ServiceCall{Type: "swift", Method: "authenticate"})(nil)

	//durations vary, so only the sample counts are compared
	count, err := testutil.GatherAndCount(reg, "swiftblob_service_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "swiftblob_service_call_duration_seconds", families[0].GetName())

	counts := make(map[string]uint64)
	for _, m := range families[0].GetMetric() {
		var labels []string
		for _, l := range m.GetLabel() {
			labels = append(labels, l.GetValue())
		}
		counts[strings.Join(labels, ",")] = m.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, map[string]uint64{
		"getObject,success,swift":    2,
		"getObject,failure,swift":    1,
		"authenticate,success,swift": 1,
	}, counts)

	//registering twice is an error
	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestLogging(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	p := Logging{Logger: logger}

	p.BeginServiceCall(getCall)(nil)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, "getObject", hook.LastEntry().Data["method"])
	assert.Equal(t, getCall.Path, hook.LastEntry().Data["path"])

	p.BeginServiceCall(getCall)(errors.New("boom"))
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.EqualError(t, hook.LastEntry().Data[logrus.ErrorKey].(error), "boom")
}

type countingProfiler struct {
	begun, ended int
	lastErr      error
}

func (c *countingProfiler) BeginServiceCall(swiftblob.ServiceCall) func(error) {
	c.begun++
	return func(err error) {
		c.ended++
		c.lastErr = err
	}
}

func TestLoggingWithoutLogger(t *testing.T) {
	hook := logrustest.NewGlobal()
	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})

	var p Logging
	assert.NotPanics(t, func() {
		p.BeginServiceCall(getCall)(errors.New("boom"))
	})
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "getObject", hook.LastEntry().Data["method"])
}

func TestMulti(t *testing.T) {
	a, b := &countingProfiler{}, &countingProfiler{}
	m := Multi{a, b}

	end := m.BeginServiceCall(getCall)
	assert.Equal(t, 1, a.begun)
	assert.Equal(t, 1, b.begun)
	assert.Equal(t, 0, a.ended)

	errBoom := errors.New("boom")
	end(errBoom)
	assert.Equal(t, 1, a.ended)
	assert.Equal(t, 1, b.ended)
	assert.Equal(t, errBoom, b.lastErr)
}
