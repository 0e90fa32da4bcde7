package wellobs

import (
	"testing"

	"wellobs/testutil"
)

func TestWellObsStaysBackendFree(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.InternalImportForbidden, testutil.StorageDriverForbidden),
		"wellobs depends only on domain contracts")
}
