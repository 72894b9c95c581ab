package main

import "github.com/pk-470/Supermod/cmd"

func main() {
	cmd.Execute()
}
