// Package http holds the pieces main.go uses to assemble the HTTP server:
// the application container and the Module contract.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module is an HTTP-facing component that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what the router hands each module at registration time.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is the rate-limited /api/v1 group.
	V1 *gin.RouterGroup
}
