// Package isodata implements the ISODATA clustering algorithm.
//
// ISODATA extends K-Means with control over the number of clusters. Each
// iteration distributes the points, discards clusters with too few members,
// moves the centers to their members' mean and measures the clusters. It then
// either splits clusters with a large spread or lumps clusters whose centers
// are close together. The last iteration never changes the cluster set.
//
// Clusters are addressed by index. Member sets are roaring bitmaps of point
// indices, kept per partition while the run is in progress.
package isodata
