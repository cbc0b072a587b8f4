// Package publish turns a raised anomaly.Anomaly into the JSON envelope
// this sensor's consumers expect and fires it off over WebSocket or HTTP,
// without ever blocking the Controller on a slow or unreachable peer.
//
// Grounded on rest/base_client.go for the host/scheme resolution pattern
// and trace/backend_collector.go for the fire-and-forget batch/dispatch
// shape, adapted from protobuf witness reports to the JSON anomaly
// envelope SPEC_FULL.md §4.6 defines.
package publish

import (
	"time"

	"github.com/google/uuid"

	"github.com/sifis-home/aud-sensor/anomaly"
)

// topicName is the fixed topic this sensor publishes anomalies under.
const topicName = "SIFIS:AUD_Manager_Results"

// topicUUID is derived once, deterministically, from topicName: any two
// publishers (or any consumer independently computing it) agree on the
// same value without a registry.
var topicUUID = uuid.NewMD5(uuid.NameSpaceOID, []byte(topicName))

// envelope is the wire format: a topic identifier wrapping one anomaly
// value, per SPEC_FULL.md §4.6's literal nested shape.
type envelope struct {
	RequestPostTopicUUID topicPayload `json:"RequestPostTopicUUID"`
}

type topicPayload struct {
	TopicName string `json:"topic_name"`
	TopicUUID string `json:"topic_uuid"`
	Value     value  `json:"value"`
}

type value struct {
	Description string  `json:"description"`
	SubjectIP   string  `json:"subject_ip"`
	Anomaly     message `json:"anomaly"`
}

type message struct {
	UUID      string  `json:"uuid"`
	Timestamp string  `json:"timestamp"`
	Category  string  `json:"category"`
	Severity  string  `json:"severity"`
	Score     float64 `json:"score"`
	Details   details `json:"details"`
}

type details struct {
	IPVersion     int    `json:"ip_version"`
	Direction     string `json:"direction"`
	Protocol      string `json:"protocol"`
	RemoteAddress string `json:"remote_address,omitempty"`
	ServicePort   int    `json:"service_port"`
}

func buildEnvelope(a anomaly.Anomaly) envelope {
	return envelope{
		RequestPostTopicUUID: topicPayload{
			TopicName: topicName,
			TopicUUID: topicUUID.String(),
			Value: value{
				Description: "AUD Anomaly",
				SubjectIP:   a.Details.LocalIP,
				Anomaly: message{
					UUID:      a.UUID.String(),
					Timestamp: a.Time.Format(time.RFC3339Nano),
					Category:  a.Category.String(),
					Severity:  a.Severity.String(),
					Score:     a.Score,
					Details: details{
						IPVersion:     a.Details.IPVer,
						Direction:     a.Details.Direction.String(),
						Protocol:      a.Details.Proto.Name(),
						RemoteAddress: a.Details.RemoteIP,
						ServicePort:   a.Details.SvcPort,
					},
				},
			},
		},
	}
}
