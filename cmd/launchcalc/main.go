// Command launchcalc runs the orbital calculator as an HTTP service or
// solves a single problem from the command line.
package main

func main() {
	Execute()
}
