// Package prepull places a published image on every worker node of a cluster
// under the name the test suite expects.
//
// A privileged DaemonSet pulls the source image through the node's container
// runtime and tags it as the target. The installer then watches the node
// inventory until every worker reports the target image.
package prepull
