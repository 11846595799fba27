package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys set on scan spans.
const (
	AttrRunID       = attribute.Key("autopublish.run_id")
	AttrDryRun      = attribute.Key("autopublish.dry_run")
	AttrPhase       = attribute.Key("autopublish.phase")
	AttrTransition  = attribute.Key("autopublish.transition")
	AttrPortalTypes = attribute.Key("autopublish.portal_types")
	AttrFound       = attribute.Key("autopublish.found")
	AttrAffected    = attribute.Key("autopublish.affected")
	AttrItemPath    = attribute.Key("content.path")
)

// RunAttributes describes a scan.
func RunAttributes(runID string, dryRun bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrRunID.String(runID),
		AttrDryRun.Bool(dryRun),
	}
}

// RuleAttributes describes one action rule of a phase.
func RuleAttributes(phase, transition string, portalTypes []string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPhase.String(phase),
		AttrTransition.String(transition),
		AttrPortalTypes.StringSlice(portalTypes),
	}
}

// CountAttributes reports a phase's results.
func CountAttributes(found, affected int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrFound.Int(found),
		AttrAffected.Int(affected),
	}
}
