// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package echoview mounts a view service on an echo router.
package echoview

import (
	"github.com/labstack/echo/v4"

	"viewsvc/core/view/adapters/rest"
)

// Mount registers the view for every method on each of its route patterns.
// Echo shares the "/x/*" wildcard syntax, so patterns are used as they are.
func Mount(e *echo.Echo, svc *rest.Service) []*echo.Route {
	h := echo.WrapHandler(svc.Handler())

	var routes []*echo.Route
	for _, p := range svc.View().Patterns {
		routes = append(routes, e.Any(p, h)...)
	}
	// views sharing a redirect share one status page
	if target, ok := svc.StatusPagePath(); ok && !hasRoute(e, target) {
		routes = append(routes, e.Any(target, echo.WrapHandler(rest.StatusPage()))...)
	}
	return routes
}

func hasRoute(e *echo.Echo, path string) bool {
	for _, r := range e.Routes() {
		if r.Path == path {
			return true
		}
	}
	return false
}
