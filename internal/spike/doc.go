// Package spike detects threshold crossings in voltage traces and compares
// spike trains.
package spike
