// Command budgetctl inspects and edits a budgetlite ledger from the terminal.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
