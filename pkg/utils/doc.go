// Package utils provides small packages used across kci:
//
//   - debuglog: the JSON debug log file
//   - envvar: ${NAME} expansion in configuration values
//   - notify: colored console lines mirrored into the debug log
package utils
