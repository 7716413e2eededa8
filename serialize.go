package jobq

import (
	"errors"
	"time"
)

// jobRecord is the stored form of a queued job. ExpiresMs is the record TTL
// the pool chose: 0 unknown, negative never.
type jobRecord struct {
	Function  string         `json:"f" msgpack:"f"`
	Args      []any          `json:"a" msgpack:"a"`
	Kwargs    map[string]any `json:"k" msgpack:"k"`
	JobTry    int            `json:"t" msgpack:"t"`
	EnqueueMs int64          `json:"et" msgpack:"et"`
	Queue     string         `json:"q,omitempty" msgpack:"q,omitempty"`
	ExpiresMs int64          `json:"ex,omitempty" msgpack:"ex,omitempty"`
}

// resultRecord is the stored form of a finished job.
type resultRecord struct {
	Function  string         `json:"f" msgpack:"f"`
	Args      []any          `json:"a" msgpack:"a"`
	Kwargs    map[string]any `json:"k" msgpack:"k"`
	JobTry    int            `json:"t" msgpack:"t"`
	EnqueueMs int64          `json:"et" msgpack:"et"`
	Success   bool           `json:"s" msgpack:"s"`
	Result    []byte         `json:"r,omitempty" msgpack:"r,omitempty"`
	StartMs   int64          `json:"st" msgpack:"st"`
	FinishMs  int64          `json:"ft" msgpack:"ft"`
	Queue     string         `json:"q" msgpack:"q"`
	JobID     string         `json:"id" msgpack:"id"`
}

var errMissingFunction = errors.New("record has no function name")

// SerializeJob encodes a job definition. It returns a *SerializationError when
// the arguments cannot be encoded.
func SerializeJob(enc Encoder, function string, args []any, kwargs map[string]any, jobTry int, enqueueTime time.Time) ([]byte, error) {
	return serializeJobDef(enc, &JobDef{
		Function:    function,
		Args:        args,
		Kwargs:      kwargs,
		JobTry:      jobTry,
		EnqueueTime: enqueueTime,
	})
}

// serializeJobDef encodes def including its queue name and record TTL.
func serializeJobDef(enc Encoder, def *JobDef) ([]byte, error) {
	var ex int64
	switch {
	case def.expires < 0:
		ex = -1
	case def.expires > 0:
		ex = def.expires.Milliseconds()
	}
	b, err := enc.Encode(jobRecord{
		Function:  def.Function,
		Args:      def.Args,
		Kwargs:    def.Kwargs,
		JobTry:    def.JobTry,
		EnqueueMs: timeToMs(def.EnqueueTime),
		Queue:     def.QueueName,
		ExpiresMs: ex,
	})
	if err != nil {
		return nil, &SerializationError{Function: def.Function, Err: err}
	}
	return b, nil
}

// DeserializeJobRaw decodes a job record into its parts.
func DeserializeJobRaw(enc Encoder, b []byte) (function string, args []any, kwargs map[string]any, jobTry int, enqueueTime time.Time, err error) {
	rec, err := decodeJobRecord(enc, b)
	if err != nil {
		return "", nil, nil, 0, time.Time{}, err
	}
	return rec.Function, rec.Args, rec.Kwargs, rec.JobTry, msToTime(rec.EnqueueMs), nil
}

// DeserializeJob decodes a job record into a JobDef. QueueName is set when
// the record carries it; JobID and Score are left for the caller to fill in.
func DeserializeJob(enc Encoder, b []byte) (*JobDef, error) {
	rec, err := decodeJobRecord(enc, b)
	if err != nil {
		return nil, err
	}
	def := &JobDef{
		Function:    rec.Function,
		Args:        rec.Args,
		Kwargs:      rec.Kwargs,
		JobTry:      rec.JobTry,
		EnqueueTime: msToTime(rec.EnqueueMs),
		QueueName:   rec.Queue,
	}
	switch {
	case rec.ExpiresMs < 0:
		def.expires = -1
	case rec.ExpiresMs > 0:
		def.expires = time.Duration(rec.ExpiresMs) * time.Millisecond
	}
	return def, nil
}

func decodeJobRecord(enc Encoder, b []byte) (*jobRecord, error) {
	var rec jobRecord
	if err := enc.Decode(b, &rec); err != nil {
		return nil, &DeserializationError{Msg: msgDeserializeJob, Err: err}
	}
	if rec.Function == "" {
		return nil, &DeserializationError{Msg: msgDeserializeJob, Err: errMissingFunction}
	}
	return &rec, nil
}

// SerializeResult encodes value and the metadata in r as a result record.
// It cannot fail: nil is returned when either the value or the record cannot
// be encoded, so callers can still decide how to record the outcome.
func SerializeResult(enc Encoder, r *JobResult, value any) []byte {
	payload, err := enc.Encode(value)
	if err != nil {
		return nil
	}
	return serializeResultRecord(enc, r, payload)
}

// serializeResultRecord encodes r with an already encoded payload; a nil
// payload is stored as absent.
func serializeResultRecord(enc Encoder, r *JobResult, payload []byte) []byte {
	b, err := enc.Encode(resultRecord{
		Function:  r.Function,
		Args:      r.Args,
		Kwargs:    r.Kwargs,
		JobTry:    r.JobTry,
		EnqueueMs: timeToMs(r.EnqueueTime),
		Success:   r.Success,
		Result:    payload,
		StartMs:   timeToMs(r.StartTime),
		FinishMs:  timeToMs(r.FinishTime),
		Queue:     r.QueueName,
		JobID:     r.JobID,
	})
	if err != nil {
		return nil
	}
	return b
}

// DeserializeResult decodes a result record.
func DeserializeResult(enc Encoder, b []byte) (*JobResult, error) {
	var rec resultRecord
	if err := enc.Decode(b, &rec); err != nil {
		return nil, &DeserializationError{Msg: msgDeserializeResult, Err: err}
	}
	if rec.Function == "" {
		return nil, &DeserializationError{Msg: msgDeserializeResult, Err: errMissingFunction}
	}
	return &JobResult{
		JobDef: JobDef{
			JobID:       rec.JobID,
			Function:    rec.Function,
			Args:        rec.Args,
			Kwargs:      rec.Kwargs,
			JobTry:      rec.JobTry,
			EnqueueTime: msToTime(rec.EnqueueMs),
			QueueName:   rec.Queue,
		},
		Success:    rec.Success,
		Result:     rec.Result,
		StartTime:  msToTime(rec.StartMs),
		FinishTime: msToTime(rec.FinishMs),
		enc:        enc,
	}, nil
}

func timeToMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
