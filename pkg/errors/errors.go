package errors

import "errors"

// ErrOptimisticLock a versioned record was modified by another request between read and write.
var ErrOptimisticLock = errors.New("record was modified by another request, reload and retry")
