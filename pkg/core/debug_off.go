//go:build !loomdebug

package core

const debugBuild = false
