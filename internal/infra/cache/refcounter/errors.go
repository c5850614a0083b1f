package refcounter

import "errors"

// ErrIncrement возвращается при ошибке выполнения скрипта в redis
var ErrIncrement = errors.New("refcounter.cache: failed to increment counter")
