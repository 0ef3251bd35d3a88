// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — cold-path diagnostic logging (no fmt)
//
// Purpose:
//   - Reports setup failures, affinity errors, journal flush errors and run
//     summaries without pulling fmt into hot packages.
//   - Never called from Insert/Remove; the ring exposes an insert hook instead.
//
// Format:
//   "<PREFIX>: <message>\n" on stderr
//
// ⚠️ Never invoke in hot loops — use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "isrqueue/utils"

// DropError logs prefix and err. A nil err logs the bare prefix, which is
// used as a cheap trace tag.
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage logs prefix and message.
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
