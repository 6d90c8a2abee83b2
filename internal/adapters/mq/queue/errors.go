package queue

// Enqueue rejection reasons reported to metrics.
const (
	ReasonClosed    = "closed"
	ReasonFull      = "queue_full"
	ReasonCancelled = "context_cancelled"
)
