package main

import "github.com/RyanBlaney/sonido-voice/cmd"

func main() {
	cmd.Execute()
}
