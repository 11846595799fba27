// Package autopublish transitions catalog items whose effective or
// expiration dates have passed.
//
// A Scanner runs the publish scan followed by the retract scan, mails the
// audit report and records the run in history. A Scheduler drives the
// scanner from a cron expression. TransitionHandler subscribes to workflow
// events and stamps an expiration date on items that are retracted or
// rejected so they are not published again.
package autopublish
