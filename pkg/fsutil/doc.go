// Package fsutil resolves user-supplied filesystem paths.
package fsutil
