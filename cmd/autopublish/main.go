// Autopublish publishes and retracts catalog content on schedule.
//
// It periodically scans the content catalog for items whose effective date
// has passed and publishes them, retracts items whose expiration date has
// passed, and optionally mails an audit log of every transition.
//
// Usage:
//
//	# Run the scheduler and admin API
//	autopublish run --config autopublish.yaml
//
//	# Run one scan now, without changing anything
//	autopublish scan --dry-run
//
//	# Load items into the catalog
//	autopublish items import items.yaml
//
//	# Show recent runs
//	autopublish history
package main

func main() {
	Execute()
}
