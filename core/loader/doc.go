// Package loader registers the status API's features.
//
// Each feature implements Feature: a name, an enabled switch and a Load
// hook that mounts its routes. The serve command registers every feature
// with a Manager and calls LoadAll once the global middleware is in place.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader
