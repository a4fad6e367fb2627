package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// logEvent writes to logger when one is configured. Logging failures never
// affect the operation being logged.
func logEvent(logger EventLogger, eventType string, data map[string]any) {
	if logger == nil {
		return
	}
	_ = logger.LogEvent(eventType, data)
}

// logStale records an operation on a task id that is no longer present.
func logStale(logger EventLogger, op, taskID string) {
	logEvent(logger, "diagnostic.stale_reference", map[string]any{
		"op":      op,
		"task_id": taskID,
	})
}

// logPersistFailure records a write intent the store could not commit.
func logPersistFailure(logger EventLogger, op string, err error, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["op"] = op
	data["error"] = err.Error()
	logEvent(logger, "diagnostic.persist_failed", data)
}
