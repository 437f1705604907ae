// Package image builds the application image from the working copy and
// publishes it to the registry the cluster pulls from.
//
// Builds go through the docker CLI so BuildKit and the user's builder
// configuration apply. Login and push use the Docker engine API.
package image
