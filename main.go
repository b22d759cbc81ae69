package main

import "github.com/mtalvio/onedrive-audit/cmd"

func main() {
	cmd.Execute()
}
