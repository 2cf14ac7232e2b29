// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package metrics

import (
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	// GRPCClientMetrics instruments every dial made by client.MDSClient
	// and client.GroupClient.
	GRPCClientMetrics = grpcprometheus.NewClientMetrics(
		func(c *prometheus.CounterOpts) {
			c.Namespace = "metacache"
		},
	)

	ResolveHit = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metacache",
		Subsystem: "resolver",
		Name:      "resolve_hit_total",
		Help:      "ResolveLeader calls answered from a cached, stable leader without any RPC.",
	})

	ResolveRefresh = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metacache",
		Subsystem: "resolver",
		Name:      "resolve_refresh_total",
		Help:      "ResolveLeader calls that entered the refresh ladder.",
	})

	LadderExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metacache",
		Subsystem: "resolver",
		Name:      "ladder_exhausted_total",
		Help:      "Refresh ladders that exhausted their retry budget without finding a leader.",
	})

	AppliedIndex = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "metacache",
		Subsystem: "copyset",
		Name:      "applied_index",
		Help:      "Highest applied index observed per copyset.",
	}, []string{"pool_id", "copyset_id"})
)

func init() {
	Registry.MustRegister(
		GRPCClientMetrics,
		ResolveHit,
		ResolveRefresh,
		LadderExhausted,
		AppliedIndex,
	)
	GRPCClientMetrics.EnableClientHandlingTimeHistogram(
		func(h *prometheus.HistogramOpts) {
			h.Namespace = "metacache"
		},
	)
}
