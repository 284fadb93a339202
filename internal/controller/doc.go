// Package controller runs per-entity controller plugins at a configured rate.
//
// Every tick the world calls Update with the current simulation time and the
// physics step size. The controller skips the tick unless it is active
// (always on, or one of its output interfaces has a subscriber) and at least
// one update period has elapsed since the last executed update, rounded to
// whole steps.
package controller
