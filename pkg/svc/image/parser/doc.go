// Package parser reads pinned image references out of embedded Dockerfiles.
//
// Helper images are declared as FROM lines in a Dockerfile next to the code
// that uses them, so dependency bots can bump them like any other base image.
package parser
