package main

import "github.com/libr0/ctc-accounts/ctc/cmd"

func main() {
	cmd.Execute()
}
