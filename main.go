// The main package for the survey-trends executable.
package main

import (
	"github.com/JakeFAU/survey-trends/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
