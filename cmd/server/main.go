package main

import "github.com/nguyentranbao-ct/crm-assistant/cmd"

func main() {
	cmd.Execute()
}
