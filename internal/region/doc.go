// Package region determines the traffic side of the vehicle's operating
// territory.
//
// A Resolver classifies the first valid geographic fix it sees, persists the
// answer through a non-blocking writer and then ignores every later fix for
// the rest of the process. Classification is a pure function; the default
// one tests the fix against an embedded TOML dataset of left-hand-traffic
// territories, where vehicles are right-hand drive.
package region
