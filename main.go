package main

import "github.com/civistat/embsurvey/cmd"

func main() {
	cmd.Execute()
}
