package physics

import "fmt"

func assertf(cond bool, format string, args ...any) {
	if debugAsserts && !cond {
		panic(fmt.Sprintf("physics: "+format, args...))
	}
}
