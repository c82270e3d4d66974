package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/router"
	"github.com/immersionlab/backend/pkg/xcontext"
)

// OnlyAdmin accepts requests carrying the configured admin token. All requests
// are denied if no token is configured.
func OnlyAdmin() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		expected := xcontext.Configs(ctx).Admin.Token
		req := xcontext.HTTPRequest(ctx)
		if expected == "" || req == nil {
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		actual := req.Header.Get(router.AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return nil, nil
	}
}
