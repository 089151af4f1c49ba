// Package route maps request method and path onto the closed set of user API
// routes.
package route

import "strings"

// Route identifies a (method, path shape) pair of the user API.
type Route uint8

const (
	NotFound Route = iota
	Login
	Logout
	Register
	List
	ChangePassword
	ChangeEmail
)

// APIRoot is the first path segment owned by the user API.
const APIRoot = "users"

// RequiresSession reports whether the route may only be served to a request
// carrying an active session.
func (r Route) RequiresSession() bool {
	switch r {
	case List, ChangePassword, ChangeEmail:
		return true
	case NotFound, Login, Logout, Register:
		return false
	}
	return false
}

func (r Route) String() string {
	switch r {
	case Login:
		return "LOGIN"
	case Logout:
		return "LOGOUT"
	case Register:
		return "REGISTER"
	case List:
		return "LIST"
	case ChangePassword:
		return "CHANGE_PASSWORD"
	case ChangeEmail:
		return "CHANGE_EMAIL"
	case NotFound:
		return "NOT_FOUND"
	}
	return "UNKNOWN"
}

// Resolve maps method and path to a Route. It is a pure function.
//
// One trailing "/" is stripped, then the path is split on "/". The leading
// empty segment counts and trailing empty segments are dropped, so "/users"
// has two segments and "/users/7/password" has four.
func Resolve(method, path string) Route {
	path = strings.TrimSuffix(path, "/")
	segments := splitSegments(path)

	switch len(segments) {
	case 2:
		switch method {
		case "GET":
			return List
		case "POST":
			return Register
		}
	case 3:
		if method != "POST" {
			break
		}
		switch segments[2] {
		case "login":
			return Login
		case "logout":
			return Logout
		}
	case 4:
		if method != "PATCH" {
			break
		}
		switch segments[3] {
		case "password":
			return ChangePassword
		case "email":
			return ChangeEmail
		}
	}
	return NotFound
}

// IsAPIPath reports whether the first segment of path is APIRoot.
func IsAPIPath(path string) bool {
	rest, ok := strings.CutPrefix(path, "/")
	if !ok {
		return false
	}
	first, _, _ := strings.Cut(rest, "/")
	return first == APIRoot
}

func splitSegments(path string) []string {
	segments := strings.Split(path, "/")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	return segments
}
