package main

import "github.com/xdearboy/bookkeeper/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
