// Package monitor implements the driver awareness engine.
//
// DriverStatus fuses face-pose observations, driver interaction and vehicle
// state into a continuous awareness level in [0, 1] that decays while the
// driver looks away or cannot be seen and recovers while they pay attention.
// Two monitoring modes exist: active mode, used when the face is visible and
// the pose model is confident, decays over a short window; passive mode
// decays over the configured awareness budget. Every rate is expressed per
// second and scaled by the elapsed time between observations so the time to
// alert does not depend on the input frame rate.
//
// Pose biases are learned online with RunningStatFilter and replace the
// natural offsets once enough confident samples at speed have been seen.
// Sustained distraction escalates through pre, prompt and terminal alerts;
// terminal alerts are counted and, past MaxTerminalAlerts or
// MaxTerminalDuration, produce a noEntry lockout event.
package monitor
