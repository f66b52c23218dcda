package main

import "game-vault/cmd"

func main() {
	cmd.Execute()
}
