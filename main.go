package main

import "github.com/kareemelharony/samatcher/cmd"

func main() {
	cmd.Execute()
}
