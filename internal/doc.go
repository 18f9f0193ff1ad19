// internal is internal packages for pingsvc.
//
// The packages layer leaf-first: pingerr, meta, and privacy stand alone;
// probe builds on pingerr; cycle drives probe through small interfaces
// like cycle.Prober and cycle.Reporter; config, report, schedule, and
// status serve the main package around that core.
package internal
