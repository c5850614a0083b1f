package expiration

import "errors"

// ErrLockHeld блокировка занята другим инстансом
var ErrLockHeld = errors.New("expiration: sweep lock is held by another instance")
