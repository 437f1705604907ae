// Package docker creates Docker Engine API clients from the environment.
package docker
