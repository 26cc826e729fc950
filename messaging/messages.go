package messaging

import (
	"encoding/json"
	"time"
)

const (
	// MsgPropId is the meta key holding the item id
	MsgPropId = "id"
	// MsgPropTimestamp is the meta key holding the enqueue time (RFC 3339)
	MsgPropTimestamp = "timestamp"
	// MsgPropSession is the meta key holding the websocket session that asked
	MsgPropSession = "session"
	// MsgPropMsgId is the meta key holding the originating message id
	MsgPropMsgId = "msgId"
)

// Job is one item pushed on the request list.
type Job struct {
	JobId     string            `json:"job_id"`
	DataInput json.RawMessage   `json:"data_input"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// JobResult is pushed by the worker on the per-job result list.
type JobResult struct {
	JobId  string          `json:"job_id"`
	Result json.RawMessage `json:"result"`
}

// ResultQueueName returns the list a job's result is pushed to.
func ResultQueueName(prefix, jobId string) string {
	return prefix + ":" + jobId
}

// NewMeta returns the default job metadata.
func NewMeta(id, session, msgId string, now time.Time) map[string]string {
	meta := map[string]string{
		MsgPropId:        id,
		MsgPropTimestamp: now.UTC().Format(time.RFC3339),
	}
	if session != "" {
		meta[MsgPropSession] = session
	}
	if msgId != "" {
		meta[MsgPropMsgId] = msgId
	}
	return meta
}
