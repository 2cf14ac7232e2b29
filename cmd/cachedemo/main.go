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

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencurve/curve-metacache/cache"
	"github.com/opencurve/curve-metacache/client"
	"github.com/opencurve/curve-metacache/metrics"
)

// Config is the demo command's on-disk configuration: the refresh
// ladder tuning from cache.Options plus the transport endpoints the
// cache's two collaborators are dialed through.
type Config struct {
	cache.Options

	MDS         client.MDSConfig       `json:"mds"`
	GroupClient client.TransportConfig `json:"group_client"`
	MetricsBind string                 `json:"metrics_bind"`
	LogLevel    log.Level              `json:"log_level"`
}

func main() {
	config.Init("f", "", "cachedemo.json")

	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		log.Fatal(errors.Detail(err))
	}
	log.SetOutputLevel(cfg.LogLevel)

	mds, err := client.NewMDSClient(&cfg.MDS)
	if err != nil {
		log.Fatalf("dial metadata service: %s", err)
	}
	defer mds.Close()

	group := client.NewGroupClient(cfg.GroupClient)
	defer group.Close()

	c := cache.Init(cache.Config{
		Options:        cfg.Options,
		MetadataClient: mds,
		GroupProbe:     group,
	})

	if cfg.MetricsBind != "" {
		serveMetrics(cfg.MetricsBind)
	}

	demoLookup(c)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch
}

func serveMetrics(bind string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(bind, mux); err != nil {
			log.Errorf("metrics server stopped: %s", err)
		}
	}()
}

// demoLookup exercises the cache the way a storage client would on the
// read path: resolve the leader of a copyset. The refresh ladder runs
// only for a cached entry whose leader is unknown or unstable; a
// copyset that is not cached at all is reported as no such copyset.
func demoLookup(c *cache.Cache) {
	key := cache.CopysetKey{PoolID: 1, CopysetID: 1}
	if _, ok := c.GetCopyset(key); !ok {
		log.Info("copyset 1/1 not yet cached; ResolveLeader will report no such copyset")
	}

	ctx := context.Background()
	memberID, endpoint, err := c.ResolveLeader(ctx, key.PoolID, key.CopysetID, false)
	if err != nil {
		log.Warnf("resolve leader for copyset %s: %s", key, err)
		return
	}
	log.Infof("copyset %s leader is member %d at %s:%d", key, memberID, endpoint.IP, endpoint.Port)
}
