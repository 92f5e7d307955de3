// Command covgate runs gcovr over a source tree and fails the build when line
// coverage is below a required percentage. The exit status is the shortfall
// in percentage points, so CI logs show how far off a run was.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
