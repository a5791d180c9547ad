package main

import "github.com/dbsmedya/teamsweep/cmd/teamsweep/cmd"

func main() {
	cmd.Execute()
}
