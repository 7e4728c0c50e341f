package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

func (healthResponse) Message() string {
	return "Service is healthy"
}

const (
	statusUp       = "up"
	statusDisabled = "disabled"
)

func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Database: statusUp, Cache: statusDisabled}

	var err error
	switch {
	case a.dbConn != nil:
		err = a.dbConn.Ping(ctx)
	case a.sqliteConn != nil:
		err = a.sqliteConn.PingContext(ctx)
	}
	if err != nil {
		slog.ErrorContext(ctx, "health check database failed", "error", err)
		return nil, goerror.NewBusiness("Database unavailable", goerror.CodeUnavailable)
	}

	if a.cacheConn != nil {
		if err := a.cacheConn.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "health check redis failed", "error", err)
			return nil, goerror.NewBusiness("Cache unavailable", goerror.CodeUnavailable)
		}
		resp.Cache = statusUp
	}

	return resp, nil
}
