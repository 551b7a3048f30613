// Package router wires handlers onto the gin engine.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by handlers that register their own routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under a versioned API prefix
type Router struct {
	apiVersion string
	registrars []RouteRegistrar
}

// New creates a router for the v1 API
func New() *Router {
	return &Router{apiVersion: "v1"}
}

// Register adds one or more registrars
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts all registered routes on the engine under /api/<version>
func (r *Router) Setup(engine *gin.Engine) {
	api := engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}
