package businessflow

import "sync"

// Batch generation is serialized process-wide so two concurrent batches for
// the same occasion never compute the same generation number.
var (
	qrBatchGenMutex sync.Mutex
)

func lockQrBatchGen() {
	qrBatchGenMutex.Lock()
}

func unlockQrBatchGen() {
	qrBatchGenMutex.Unlock()
}
