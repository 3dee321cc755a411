package main

import "github.com/koki-develop/vidsheet/cmd"

func main() {
	cmd.Execute()
}
