package main

import "github.com/KaramelBytes/mvscope/cmd"

func main() {
	cmd.Execute()
}
