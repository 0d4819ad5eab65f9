// Package handler is the serverless entry point: the host invokes Handler
// once per inbound request.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/okian/wordstat-proxy/internal/bootstrap"
	"github.com/okian/wordstat-proxy/internal/config"
	"github.com/okian/wordstat-proxy/internal/domain/types"
	"github.com/okian/wordstat-proxy/pkg/logger"
)

var (
	once     sync.Once
	dispatch http.Handler
	buildErr error
)

// Handler serves every request with the dispatch handler, whatever the path.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		dispatch, buildErr = build(context.Background())
	})
	if buildErr != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(failureBody(buildErr))
		return
	}
	dispatch.ServeHTTP(w, r)
}

func build(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := bootstrap.Logging(ctx, cfg); err != nil {
		return nil, err
	}
	proxy, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "failed to build proxy", logger.Error(err))
		return nil, err
	}
	return proxy.DispatchHandler(), nil
}

func failureBody(err error) []byte {
	body, mErr := json.Marshal(types.Failure(err.Error()))
	if mErr != nil {
		return []byte(`{"status":"error","message":"failed to encode response"}`)
	}
	return body
}
