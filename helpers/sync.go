package helpers

import (
	"github.com/temoto/alive/v2"
)

// AliveSub stops leaf when root stops.
func AliveSub(root, leaf *alive.Alive) {
	select {
	case <-root.StopChan():
		leaf.Stop()
	case <-leaf.StopChan():
	}
}
