// Package library stores finished episode analyses keyed by series and
// episode number, and moves whole series between installs through a JSON
// archive format.
package library
