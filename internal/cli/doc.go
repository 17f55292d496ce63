// Package cli implements the psicash command, a small inspection and
// maintenance tool over a PsiCash data directory.
//
// Every subcommand opens the datastore named by --data-dir, runs one
// operation and closes it again. Output is plain text by default; with
// -o json each result is wrapped in {"status":"ok","data":...}, indented
// when stdout is a terminal.
package cli
