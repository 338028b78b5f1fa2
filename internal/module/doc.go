// Package module defines installable modules and their lifecycle.
//
// Legal transitions:
//
//	Installed → Resolved | Failed | Removed
//	Resolved  → Starting | Failed | Removed
//	Starting  → Active | Failed
//	Active    → Stopping | Failed
//	Stopping  → Resolved | Failed
//	Failed    → Resolved | Removed
//
// Re-resolving a Resolved or Failed module is allowed and is a no-op for
// observers. Every change goes through Lifecycle.Transition, which rejects
// anything else with ErrIllegalTransition.
package module
