// Package system probes host resources used to size worker pools.
package system
