package vm

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// log is the package-level logger every GC phase, allocation failure,
// and process-lifecycle transition reports through, the way
// server/lsp.go wires commonlog for the session server rather than
// reaching for the standard log package.
var log = commonlog.GetLogger("vm")

// SetLogBackend replaces vm's logger with the commonlog logger registered
// under name. The logger comes from whichever commonlog backend is
// currently configured; this function does not switch backends.
func SetLogBackend(name string) {
	log = commonlog.GetLogger(name)
}
