//go:build darwin

package debug

const rusageInBytes = true
