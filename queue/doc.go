// Package queue implements the priority event queue feeding the dispatcher.
// Ordering is strict priority with FIFO tie-break on arrival, so low-priority
// events are never starved as long as the queue drains. Enqueue is safe for
// concurrent use; the dispatcher is the single consumer.
package queue
