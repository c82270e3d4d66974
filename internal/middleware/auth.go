package middleware

import (
	"context"

	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/router"
	"github.com/immersionlab/backend/pkg/xcontext"
)

func Authenticate() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestUserID(ctx) == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		return nil, nil
	}
}
