// Package controllers holds the controller plugins that can be named in a
// world file and the registry that builds them by type.
package controllers
