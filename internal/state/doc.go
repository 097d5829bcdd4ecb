// Package state provides a value holder that notifies subscribers on change.
//
// Subscribers receive the newest value only. A slow subscriber never blocks
// Set; intermediate values it did not read are dropped.
package state
