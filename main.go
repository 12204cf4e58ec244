package main

import "github.com/arclight-ai/agentcore/cmd"

func main() {
	cmd.Execute()
}
