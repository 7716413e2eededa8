package keys

// Package keys centralizes Redis key construction.
// It is kept in internal to avoid leaking key formats to public API.

const (
	// JobPrefix prefixes serialized job records.
	JobPrefix = "jobq:job:"
	// InProgressPrefix prefixes the per-job claim markers.
	InProgressPrefix = "jobq:in-progress:"
	// ResultPrefix prefixes serialized job results.
	ResultPrefix = "jobq:result:"
)

func Job(id string) string        { return JobPrefix + id }
func InProgress(id string) string { return InProgressPrefix + id }
func Result(id string) string     { return ResultPrefix + id }

// Pending is the per-queue LIST of job ids waiting for a worker.
func Pending(q string) string { return "jobq:{" + q + "}:queue" }

// Delayed is the per-queue ZSET of deferred job ids; scores are run-at timestamps in ms.
func Delayed(q string) string { return "jobq:{" + q + "}:delayed" }

// Queue holds all precomputed keys for a queue name to avoid repeated concatenations.
type Queue struct {
	Name    string
	Pending string
	Delayed string
}

// For returns a set of precomputed keys for the provided queue.
func For(q string) Queue {
	prefix := "jobq:{" + q + "}:"
	return Queue{
		Name:    q,
		Pending: prefix + "queue",
		Delayed: prefix + "delayed",
	}
}

// IDFromResult strips the result prefix from a key. It returns an empty string
// when the key does not carry the prefix.
func IDFromResult(key string) string {
	if len(key) <= len(ResultPrefix) || key[:len(ResultPrefix)] != ResultPrefix {
		return ""
	}
	return key[len(ResultPrefix):]
}
