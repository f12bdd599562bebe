//go:build !verletdebug

package physics

const debugAsserts = false
