//go:build unix && !darwin

package debug

const rusageInBytes = false
