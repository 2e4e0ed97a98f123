package main

import (
	"chirpchat/cmd/app"
)

func main() {
	app.GetApp().LetsGo()
}
