package notify

import "errors"

// ErrDeliveryFailed is returned when the webhook endpoint is unreachable or
// answers outside the 2xx range. Callers log it and move on; it never fails
// a completed run.
var ErrDeliveryFailed = errors.New("webhook delivery failed")
