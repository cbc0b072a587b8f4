package anomaly

import "github.com/sifis-home/aud-sensor/flowtypes"

// patternMismatchAnomaly builds the PatternMismatch anomaly for a flow
// whose PEP carried zero prior weight in its AUDRecord's aggregator —
// same ACL key as ever, but a shape of conversation the device has never
// had with it before. Score is fixed at 1: this detector doesn't grade
// degree of mismatch, only presence.
func patternMismatchAnomaly(key flowtypes.ACLKey, localIP string) Anomaly {
	return Anomaly{
		Category: flowtypes.CategoryPatternMismatch,
		Severity: flowtypes.SeverityUnknown,
		Score:    1,
		Details:  detailsFromACLKey(key, localIP),
	}
}
