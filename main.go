package main

import "github.com/mkajiha/git-workspace/cmd"

func main() {
	cmd.Execute()
}
