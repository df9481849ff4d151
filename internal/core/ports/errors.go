package ports

import "errors"

// 定義 Ports 層級通用的錯誤
var (
	ErrTopListUnsupported = errors.New("top list is not supported by this store")
	ErrLockNotAcquired    = errors.New("lock is held by another instance")
)
