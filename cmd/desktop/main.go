package main

import "github.com/GriffinCanCode/AgentOS/desktop/internal/cli"

func main() {
	cli.Execute()
}
