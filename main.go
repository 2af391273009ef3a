package main

import "decomp-history/cmd"

func main() {
	cmd.Execute()
}
