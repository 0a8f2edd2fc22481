// Package kdtree implements a k-d tree over a points.Set that classifies points
// against a small set of centers in sub-linear expected time.
//
// Each node splits its points on the coordinate of maximal spread at the exact
// median (three-way quickselect), so sibling subtrees differ in size by at most
// one point. Classification walks the tree with a shrinking candidate list: a
// center is dropped for a node when its minimum distance to the node's bounding
// box is strictly greater than the smallest maximum distance of any candidate.
// Once a single candidate remains the whole subtree is reported in bulk.
//
// Results, including tie-breaking, are identical to brute-force search.
package kdtree
