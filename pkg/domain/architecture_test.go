package domain

import (
	"testing"

	"wellobs/testutil"
)

// TestDomainDoesNotImportInternal keeps the contract package free of
// implementation dependencies so backends can import it without cycles.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must stay implementation-free")
}
