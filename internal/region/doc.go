// Package region models a per-block scheduling region: an arena of
// instruction units in original program order, plus a typed dependency edge
// overlay. The base graph (Data and Order edges) is installed once during
// construction; scheduling mutations may only append Cluster and Artificial
// edges on top of it, and every insertion path refuses edges that would
// close a cycle.
package region
