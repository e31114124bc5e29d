package router

import (
	"net/http"

	"github.com/erp/consignment/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// resource is one URL prefix and the endpoints mounted below it
type resource struct {
	prefix string
	guards []gin.HandlerFunc
	routes []route
}

func (r resource) mount(api *gin.RouterGroup) {
	group := api.Group(r.prefix, r.guards...)
	for _, rt := range r.routes {
		group.Handle(rt.method, rt.path, rt.handler)
	}
}

// mountAPI attaches every resource under the versioned prefix behind the
// group middleware
func mountAPI(engine *gin.Engine, group []gin.HandlerFunc, resources ...resource) {
	api := engine.Group(apiPrefix, group...)
	for _, r := range resources {
		r.mount(api)
	}
}

func consignmentResource(h *handler.ConsignmentHandler) resource {
	return resource{prefix: "/consignments", routes: []route{
		{http.MethodPost, "", h.Create},
		{http.MethodGet, "", h.List},
		{http.MethodGet, "/summary", h.Summary},
		{http.MethodGet, "/:id", h.GetByID},
		{http.MethodPost, "/:id/lines", h.AddLines},
		{http.MethodPost, "/:id/settlements", h.RegisterSettlement},
		{http.MethodGet, "/:id/statement.xlsx", h.DownloadStatement},
	}}
}

func productResource(h *handler.ProductHandler) resource {
	return resource{prefix: "/products", routes: []route{
		{http.MethodGet, "/:id/movements", h.ListMovements},
	}}
}
