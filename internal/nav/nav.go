// Package nav names the screens of the client and the hook used to move
// between them.
package nav

import "sync"

// Route identifies a screen.
type Route int

const (
	RouteLogin Route = iota
	RouteRegister
	RouteLibrary
	RouteBookForm
	RouteProfile
	RouteAdminUsers
)

var routeNames = map[Route]string{
	RouteLogin:      "login",
	RouteRegister:   "register",
	RouteLibrary:    "library",
	RouteBookForm:   "book-form",
	RouteProfile:    "profile",
	RouteAdminUsers: "admin-users",
}

func (r Route) String() string {
	if name, ok := routeNames[r]; ok {
		return name
	}
	return "unknown"
}

// Navigator moves the front end to a route.
type Navigator interface {
	Navigate(Route)
}

// Func adapts a function to Navigator.
type Func func(Route)

// Navigate calls f.
func (f Func) Navigate(r Route) { f(r) }

// Recorder remembers every route it is sent. One-shot commands use it to
// learn whether the session was dropped mid-command.
type Recorder struct {
	mu     sync.Mutex
	routes []Route
}

// Navigate records r.
func (r *Recorder) Navigate(route Route) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

// Routes returns the recorded routes in order.
func (r *Recorder) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// Visited reports whether route was recorded.
func (r *Recorder) Visited(route Route) bool {
	for _, got := range r.Routes() {
		if got == route {
			return true
		}
	}
	return false
}

// Discard ignores navigation.
var Discard Navigator = Func(func(Route) {})

// Switch forwards to a navigator that can be replaced after wiring, so
// components built before the front end exists can still navigate.
type Switch struct {
	mu     sync.RWMutex
	target Navigator
}

// Set replaces the target. A nil target discards navigation.
func (s *Switch) Set(target Navigator) {
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
}

// Navigate forwards route to the current target.
func (s *Switch) Navigate(route Route) {
	s.mu.RLock()
	target := s.target
	s.mu.RUnlock()
	if target != nil {
		target.Navigate(route)
	}
}
