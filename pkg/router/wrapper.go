package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/xcontext"
)

const (
	// UserIDHeader is set by the gateway after authenticating the user.
	UserIDHeader     = "X-User-ID"
	AdminTokenHeader = "X-Admin-Token"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := router.newContext(c.Request)
		if userID := c.GetHeader(UserIDHeader); userID != "" {
			ctx = xcontext.WithRequestUserID(ctx, userID)
		}

		ctx, err := serve(ctx, router, c, method, handler)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			c.JSON(http.StatusOK, newErrorResponse(err))
		} else {
			c.JSON(http.StatusOK, newResponse(xcontext.Response(ctx)))
		}

		for _, closer := range router.closers {
			closer(ctx)
		}
	}
}

func serve[Request, Response any](
	ctx context.Context,
	router *Router,
	c *gin.Context,
	method string,
	handler HandlerFunc[Request, Response],
) (context.Context, error) {
	var err error
	for _, middleware := range router.befores {
		if ctx, err = runMiddleware(ctx, middleware); err != nil {
			return ctx, err
		}
	}

	var req Request
	if err := bind(c, method, &req); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
		return ctx, errorx.New(errorx.BadRequest, "Invalid request")
	}

	resp, err := handler(ctx, &req)
	if err != nil {
		return ctx, err
	}

	ctx = xcontext.WithResponse(ctx, resp)
	for _, middleware := range router.afters {
		if ctx, err = runMiddleware(ctx, middleware); err != nil {
			return ctx, err
		}
	}

	return ctx, nil
}

func runMiddleware(ctx context.Context, middleware MiddlewareFunc) (context.Context, error) {
	newCtx, err := middleware(ctx)
	if err != nil {
		return ctx, err
	}

	if newCtx != nil {
		return newCtx, nil
	}

	return ctx, nil
}

func bind(c *gin.Context, method string, req any) error {
	if method == http.MethodGet {
		return c.ShouldBindQuery(req)
	}

	if c.Request.ContentLength == 0 {
		return nil
	}

	return c.ShouldBindJSON(req)
}
