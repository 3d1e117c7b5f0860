// Package guard flips on test mode for packages that blank-import it,
// so package tests never start real runtime side effects.
package guard

import (
	"os"
	"sync"

	"github.com/tessera-hq/tessera/internal/app"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("TESSERA_TEST_MODE") == "" {
			_ = os.Setenv("TESSERA_TEST_MODE", "1")
		}
		app.RefreshTestMode()
	})
}
