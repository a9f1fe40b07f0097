package realtime

import "time"

const (
	// Subprotocol is the only protocol the feed speaks.
	Subprotocol = "nomorewaste.v1"

	// Max bytes per inbound frame. Members never send payloads, only control frames.
	maxFrameBytes = 64 << 10 // 64 KiB

	heartbeatInterval = 25 * time.Second
	heartbeatTimeout  = 5 * time.Second
	maxPingFailures   = 3

	defaultSendQueueSize = 256
	writeTimeout         = 5 * time.Second

	evictedReason = "membership ended"
)
