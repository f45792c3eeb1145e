package main

import "github.com/deva-0608/dataslide/cmd"

func main() {
	cmd.Execute()
}
