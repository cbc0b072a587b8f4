package anomaly

import "github.com/sifis-home/aud-sensor/flowtypes"

// novelAnomaly builds the NovelFlow anomaly for an ACL key the AUDRegistry
// has just allocated an AUDRecord for. NovelFlow has no notion of degree:
// either this is the first time the device has talked this way, or it
// isn't, so the score is always 1.
func novelAnomaly(key flowtypes.ACLKey, localIP string) Anomaly {
	return Anomaly{
		Category: flowtypes.CategoryNovelFlow,
		Severity: flowtypes.SeverityUnknown,
		Score:    1,
		Details:  detailsFromACLKey(key, localIP),
	}
}
