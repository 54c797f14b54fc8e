package main

import (
	_ "git.hoosierptk.dev/forums/forums/src/admintools"
	_ "git.hoosierptk.dev/forums/forums/src/migration"
	"git.hoosierptk.dev/forums/forums/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
