// Package concern implements the concern tracker and follow-up scheduler.
// Handlers register open issues detected in conversation; the tracker owns
// them exclusively, rescheduling each follow-up on an urgency-dependent,
// time-of-day aware policy (never landing inside the owner's sleep window),
// backing off once a concern stays unresolved, and soft-deleting concerns
// that age out or go unacknowledged past the configured bound.
package concern
