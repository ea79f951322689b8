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

//Package profiler contains implementations of swiftblob.Profiler.
package profiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/majewsky/swiftblob"
)

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

////////////////////////////////////////////////////////////////////////////////
// Prometheus

//Prometheus is a swiftblob.Profiler that records the duration of each call
//in a histogram.
type Prometheus struct {
	durations *prometheus.HistogramVec
}

//NewPrometheus creates the metrics for a Prometheus profiler and registers
//them with the given registerer. Pass prometheus.DefaultRegisterer to use
//the global registry.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	durations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swiftblob_service_call_duration_seconds",
			Help:    "Duration of requests to Swift, by method and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type", "method", "outcome"},
	)
	err := reg.Register(durations)
	if err != nil {
		return nil, err
	}
	return &Prometheus{durations}, nil
}

//BeginServiceCall implements the swiftblob.Profiler interface.
func (p *Prometheus) BeginServiceCall(call swiftblob.ServiceCall) func(error) {
	start := time.Now()
	return func(err error) {
		p.durations.
			WithLabelValues(call.Type, call.Method, outcomeOf(err)).
			Observe(time.Since(start).Seconds())
	}
}

////////////////////////////////////////////////////////////////////////////////
// logrus

//Logging is a swiftblob.Profiler that logs each completed call with its
//duration. Successful calls are logged at debug level, failed calls at warning
//level.
type Logging struct {
	//Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

//BeginServiceCall implements the swiftblob.Profiler interface.
func (p Logging) BeginServiceCall(call swiftblob.ServiceCall) func(error) {
	logger := p.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	start := time.Now()
	return func(err error) {
		entry := logger.WithFields(logrus.Fields{
			"type":     call.Type,
			"method":   call.Method,
			"path":     call.Path,
			"duration": time.Since(start).String(),
		})
		if err == nil {
			entry.Debug("Swift call completed")
		} else {
			entry.WithError(err).Warn("Swift call failed")
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// fan-out

//Multi is a swiftblob.Profiler that forwards each call to all of the given
//profilers.
type Multi []swiftblob.Profiler

//BeginServiceCall implements the swiftblob.Profiler interface.
func (m Multi) BeginServiceCall(call swiftblob.ServiceCall) func(error) {
	ends := make([]func(error), len(m))
	for idx, p := range m {
		ends[idx] = p.BeginServiceCall(call)
	}
	return func(err error) {
		for _, end := range ends {
			end(err)
		}
	}
}
