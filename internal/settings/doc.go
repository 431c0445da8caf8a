// Package settings exposes a typed, defaulted view of the monitoring toggles
// stored in the parameter store.
//
// A Watcher polls the store on a coarse interval and re-parses values only
// when the store's modification fingerprint moved. Derivation is
// hierarchical: disabling safety checks disables monitoring, and disabled
// monitoring lifts the awareness budget to Unlimited.
package settings
