package main

import "github.com/mentiondesk/mentiondesk/cmd/mentiondesk/cmd"

func main() {
	cmd.Execute()
}
