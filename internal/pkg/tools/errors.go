package tools

import "errors"

// ErrToolNotSupported 工具不在注册表中
var ErrToolNotSupported = errors.New("tool not supported")
