package export

import (
	"io"
	"os"
	"testing"

	"github.com/vanderheijden86/clusterboard/pkg/debug"
)

func TestMain(m *testing.M) {
	// Keep export logging out of test output even with CLUSTERBOARD_DEBUG set.
	debug.SetOutput(io.Discard)

	os.Exit(m.Run())
}
