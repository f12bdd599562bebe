//go:build verletdebug

package physics

const debugAsserts = true
