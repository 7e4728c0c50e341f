package inbound

import (
	"context"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
	"github.com/shandysiswandi/gootp/internal/verification/usecase"
)

type uc interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (*entity.Code, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*entity.Code, error)
	ExpiresAt(code entity.Code) time.Time
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/verification/codes", end.Generate)
	r.POST("/api/v1/verification/codes/verify", end.Verify)
}
