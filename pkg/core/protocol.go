package core

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthClass tells the builder how much authentication a route needs.
type AuthClass int

const (
	// AuthPublic sends no credentials.
	AuthPublic AuthClass = iota
	// AuthKey identifies the caller by API key only, without a signature.
	AuthKey
	// AuthPrivate sends a full signature.
	AuthPrivate
)

func (a AuthClass) String() string {
	return [...]string{"public", "key", "private"}[a]
}

// Route is one row of a venue routing table.
type Route struct {
	Name   string
	Method string
	Path   string
	Auth   AuthClass
	// Weight is the rate-limit cost of one call; zero counts as one.
	Weight int
}

// Cost returns the rate-limit weight, at least one.
func (r Route) Cost() int {
	if r.Weight < 1 {
		return 1
	}
	return r.Weight
}

// Weighted returns a copy of r with the given rate-limit weight.
func (r Route) Weighted(weight int) Route {
	r.Weight = weight
	return r
}

// Expand fills "{name}" segments of the path from params and returns the
// params that were not consumed.
func (r Route) Expand(params Params) (Route, Params, error) {
	if !strings.Contains(r.Path, "{") {
		return r, params, nil
	}
	var b strings.Builder
	rest := params.Clone()
	path := r.Path
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			b.WriteString(path)
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return r, params, fmt.Errorf("route %q: unterminated path parameter", r.Name)
		}
		name := path[open+1 : open+end]
		v, ok := rest.Get(name)
		if !ok {
			return r, params, fmt.Errorf("route %q: missing path parameter %q", r.Name, name)
		}
		b.WriteString(path[:open])
		b.WriteString(url.PathEscape(fmt.Sprint(v)))
		rest = rest.Del(name)
		path = path[open+end+1:]
	}
	r.Path = b.String()
	return r, rest, nil
}

// Routes is a venue routing table keyed by route name.
type Routes map[string]Route

// Lookup returns the named route or an error naming the missing operation.
func (rs Routes) Lookup(name string) (Route, error) {
	r, ok := rs[name]
	if !ok {
		return Route{}, fmt.Errorf("unknown route %q", name)
	}
	return r, nil
}

// Get, Post, Put and Delete build routes for routing tables.
func Get(name, path string, auth AuthClass) Route {
	return Route{Name: name, Method: http.MethodGet, Path: path, Auth: auth}
}

func Post(name, path string, auth AuthClass) Route {
	return Route{Name: name, Method: http.MethodPost, Path: path, Auth: auth}
}

func Put(name, path string, auth AuthClass) Route {
	return Route{Name: name, Method: http.MethodPut, Path: path, Auth: auth}
}

func Delete(name, path string, auth AuthClass) Route {
	return Route{Name: name, Method: http.MethodDelete, Path: path, Auth: auth}
}

// NewRoutes indexes routes by name.
func NewRoutes(routes ...Route) Routes {
	rs := make(Routes, len(routes))
	for _, r := range routes {
		rs[r.Name] = r
	}
	return rs
}
