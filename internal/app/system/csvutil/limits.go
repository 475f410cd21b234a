// internal/app/system/csvutil/limits.go
package csvutil

// Size and row limits for roster CSV imports.
const (
	MaxFileSize = 1 << 20 // 1 MB
	MaxRows     = 500
)
