package errors

import "errors"

// ErrOptimisticLock the record was modified by another writer since it was read.
var ErrOptimisticLock = errors.New("o registro foi alterado por outra operação, atualize e tente novamente")
