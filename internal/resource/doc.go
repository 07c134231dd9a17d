// Package resource limits the memory and bandwidth used by archive transfers.
//
//   - Memory: a weighted semaphore bounds the chunk bytes buffered at once.
//     AcquireMemory blocks until enough has been released or ctx is done.
//   - IO: a token bucket (golang.org/x/time/rate) caps bytes per second.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    IOLimitBytesPerSec: 10 << 20,
//	})
//
//	n, err := rc.AcquireMemory(ctx, int64(len(chunk)))
//	if err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(n)
//
//	if err := rc.AcquireIO(ctx, len(chunk)); err != nil {
//	    return err
//	}
//
// All methods are safe for concurrent use, and a nil *Controller is a no-op.
package resource
