package main

import "github.com/kamusis/tagsuggest/cmd"

func main() {
	cmd.Execute()
}
